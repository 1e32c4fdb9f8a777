package template

// Position is a line/column location in a template string.
// Lines are 1-based, characters 0-based, offsets are bytes.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
	Offset    int `json:"offset"`
}

// Range is a span of template source.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// PositionTracker walks a source string keeping line and column in step with
// the byte offset. Templates are usually one line but the compact notation
// allows groups to be laid out across several.
type PositionTracker struct {
	source    string
	line      int
	character int
	offset    int
}

func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{source: source, line: 1}
}

// AdvanceBytes advances by n bytes. Continuation bytes of a multi-byte rune
// do not count as characters.
func (pt *PositionTracker) AdvanceBytes(n int) {
	for i := 0; i < n && pt.offset < len(pt.source); i++ {
		ch := pt.source[pt.offset]
		switch {
		case ch == '\n':
			pt.line++
			pt.character = 0
		case ch&0xC0 != 0x80:
			pt.character++
		}
		pt.offset++
	}
}

// Mark returns the current position.
func (pt *PositionTracker) Mark() Position {
	return Position{Line: pt.line, Character: pt.character, Offset: pt.offset}
}

func RangeFromPositions(start, end Position) Range {
	return Range{Start: start, End: end}
}
