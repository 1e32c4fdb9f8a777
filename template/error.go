package template

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/syntaxis/syntaxis/errors"
)

// ErrorContext selects how a ParseError renders.
type ErrorContext string

const (
	// ErrorContextTerminal renders with ANSI colours for the CLI
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain renders a single line for logs and HTTP responses
	ErrorContextPlain ErrorContext = "plain"
)

// ErrorKind categorizes parse failures for programmatic handling
type ErrorKind string

const (
	KindMalformedToken    ErrorKind = "malformed_token"
	KindUnclosedGroup     ErrorKind = "unclosed_group"
	KindUnclosedBrace     ErrorKind = "unclosed_brace"
	KindEmptyGroup        ErrorKind = "empty_group"
	KindUnknownFeature    ErrorKind = "unknown_feature"
	KindUnknownPOS        ErrorKind = "unknown_part_of_speech"
	KindDuplicateCategory ErrorKind = "duplicate_category"
	KindMixedSuffix       ErrorKind = "mixed_suffix"
	KindDanglingReference ErrorKind = "dangling_reference"
	KindForwardReference  ErrorKind = "forward_reference"
	KindInvalidFormat     ErrorKind = "invalid_format"
	KindEmptyTemplate     ErrorKind = "empty_template"
)

var (
	ErrMalformedToken        = errors.New("malformed token")
	ErrUnclosedGroup         = errors.New("unclosed group")
	ErrUnclosedBrace         = errors.New("unclosed brace")
	ErrEmptyGroup            = errors.New("empty group")
	ErrDuplicateCategory     = errors.New("duplicate category")
	ErrMixedSuffix           = errors.New("group has both a feature list and a reference")
	ErrDanglingReference     = errors.New("dangling reference")
	ErrForwardReference      = errors.New("forward reference")
	ErrInvalidTemplateFormat = errors.New("invalid template format")
	ErrEmptyTemplate         = errors.New("empty template")
)

var sentinels = map[ErrorKind]error{
	KindMalformedToken:    ErrMalformedToken,
	KindUnclosedGroup:     ErrUnclosedGroup,
	KindUnclosedBrace:     ErrUnclosedBrace,
	KindEmptyGroup:        ErrEmptyGroup,
	KindDuplicateCategory: ErrDuplicateCategory,
	KindMixedSuffix:       ErrMixedSuffix,
	KindDanglingReference: ErrDanglingReference,
	KindForwardReference:  ErrForwardReference,
	KindInvalidFormat:     ErrInvalidTemplateFormat,
	KindEmptyTemplate:     ErrEmptyTemplate,
}

// ParseError describes why a template was rejected and where.
type ParseError struct {
	Err         error     // Sentinel or catalog error, for errors.Is
	Kind        ErrorKind // Error category
	Message     string    // Human-readable message
	Offset      int       // Byte offset into the source, -1 when unknown
	Group       int       // 1-based group (or bracket) index, 0 when unknown
	Snippet     string    // Offending substring
	Range       *Range    // Source range of the snippet
	Suggestions []string  // Possible fixes
}

// Error implements error. The plain format keeps messages stable for logs
// and API responses; the CLI asks for FormatError(ErrorContextTerminal).
func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// FormatError generates context-appropriate error message
func (e *ParseError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return e.formatTerminalError()
	}
	return e.formatPlainError()
}

func (e *ParseError) formatPlainError() string {
	msg := e.Message
	if e.Group > 0 {
		msg += fmt.Sprintf(" (group %d", e.Group)
		if e.Offset >= 0 {
			msg += fmt.Sprintf(", offset %d", e.Offset)
		}
		msg += ")"
	} else if e.Offset >= 0 {
		msg += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(": %q", e.Snippet)
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *ParseError) formatTerminalError() string {
	var b strings.Builder
	b.WriteString(pterm.Red(e.Message))
	b.WriteString("\n\n")
	b.WriteString(pterm.LightCyan("Context:"))
	if e.Group > 0 {
		fmt.Fprintf(&b, "\n  %s %d", pterm.Yellow("Group:"), e.Group)
	}
	if e.Range != nil {
		fmt.Fprintf(&b, "\n  %s line %d, column %d", pterm.Yellow("At:"), e.Range.Start.Line, e.Range.Start.Character+1)
	} else if e.Offset >= 0 {
		fmt.Fprintf(&b, "\n  %s %d", pterm.Yellow("Offset:"), e.Offset)
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, "\n  %s '%s'", pterm.Yellow("Near:"), e.Snippet)
	}
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", s)
		}
	}
	return b.String()
}

// Unwrap for errors.Is/As compatibility
func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError creates a ParseError whose Err is the sentinel for kind.
func newParseError(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Err:     sentinels[kind],
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Offset:  -1,
	}
}

// at records where in source the error happened.
func (e *ParseError) at(source string, offset int, snippet string) *ParseError {
	e.Offset = offset
	e.Snippet = snippet
	if offset >= 0 && offset <= len(source) {
		pt := NewPositionTracker(source)
		pt.AdvanceBytes(offset)
		start := pt.Mark()
		pt.AdvanceBytes(len(snippet))
		r := RangeFromPositions(start, pt.Mark())
		e.Range = &r
	}
	return e
}

func (e *ParseError) inGroup(index int) *ParseError {
	e.Group = index
	return e
}

func (e *ParseError) withSuggestion(s ...string) *ParseError {
	e.Suggestions = append(e.Suggestions, s...)
	return e
}

func (e *ParseError) withUnderlying(err error) *ParseError {
	e.Err = err
	return e
}
