package commands

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/template"
)

// FormatError renders err for the terminal. Parse errors get the annotated
// format with suggestions; anything else prints its message and hints.
func FormatError(err error) string {
	if pe, ok := template.AsParseError(err); ok {
		return pe.FormatError(template.ErrorContextTerminal)
	}

	var b strings.Builder
	b.WriteString(pterm.Red("Error: "))
	b.WriteString(err.Error())

	hints := errors.GetAllHints(err)
	if errors.Is(err, generate.ErrNoMatchingWord) {
		hints = append(hints, "the lexicon has no word with these features; try 'syntaxis lexicon stats' or a wildcard")
	}
	for _, h := range hints {
		b.WriteString("\n  ")
		b.WriteString(pterm.Yellow("hint: "))
		b.WriteString(h)
	}
	return b.String()
}
