package template

import (
	"strings"

	"github.com/syntaxis/syntaxis/errors"
)

// Parse detects the notation from the first non-whitespace character and
// parses s with the matching parser.
func Parse(s string) (*Template, error) {
	notation, ok := DetectNotation(s)
	if ok {
		if notation == NotationVerbose {
			return ParseVerbose(s)
		}
		return ParseCompact(s)
	}

	trimmed := strings.TrimLeft(s, " \t\r\n")
	if trimmed == "" {
		return nil, newParseError(KindEmptyTemplate, "template is empty")
	}
	offset := len(s) - len(trimmed)
	return nil, newParseError(KindInvalidFormat, "template must start with '[' or '('").
		at(s, offset, word(s, offset)).
		withSuggestion("[noun:nom:masc:sg]", "(noun)@{nom:masc:sg}")
}

// DetectNotation reports which notation s is written in without parsing it.
func DetectNotation(s string) (Notation, bool) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if trimmed == "" {
		return 0, false
	}
	switch trimmed[0] {
	case '[':
		return NotationVerbose, true
	case '(':
		return NotationCompact, true
	}
	return 0, false
}

// AsParseError returns the ParseError in err's chain, if any.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
