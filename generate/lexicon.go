package generate

import (
	"context"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
)

// ErrNoMatch is returned by a Lexicon when no word has the requested form.
var ErrNoMatch = errors.New("no match")

// Word is one inflected form returned by a Lexicon.
type Word struct {
	Lemma        string   `json:"lemma"`
	Form         string   `json:"form"`
	Translations []string `json:"translations,omitempty"`
}

// Lexicon finds a word of a part of speech inflected for a full feature set.
// Implementations return ErrNoMatch (possibly wrapped) when nothing fits and
// must be safe for concurrent use. A nil word with a nil error counts as
// ErrNoMatch.
type Lexicon interface {
	LookupWord(ctx context.Context, pos string, features map[grammar.Category]string) (*Word, error)
}

// LexiconFunc adapts a function to the Lexicon interface.
type LexiconFunc func(ctx context.Context, pos string, features map[grammar.Category]string) (*Word, error)

func (f LexiconFunc) LookupWord(ctx context.Context, pos string, features map[grammar.Category]string) (*Word, error) {
	return f(ctx, pos, features)
}
