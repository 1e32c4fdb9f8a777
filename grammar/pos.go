package grammar

import (
	"sort"
	"strings"

	"github.com/syntaxis/syntaxis/errors"
)

// Parts of speech understood by the resolver and the lexicon.
const (
	Noun        = "noun"
	Verb        = "verb"
	Adjective   = "adjective"
	Adverb      = "adverb"
	Article     = "article"
	Pronoun     = "pronoun"
	Numeral     = "numeral"
	Preposition = "preposition"
	Conjunction = "conjunction"
)

var (
	ErrUnknownPartOfSpeech   = errors.New("unknown part of speech")
	ErrAmbiguousPartOfSpeech = errors.New("ambiguous part of speech")
)

var required = map[string][]Category{
	Noun:        {Case, Gender, Number},
	Adjective:   {Case, Gender, Number},
	Article:     {Case, Gender, Number},
	Verb:        {Tense, Voice, Person, Number},
	Pronoun:     {Case, Person, Number},
	Adverb:      nil,
	Preposition: nil,
	Conjunction: nil,
	Numeral:     nil,
}

// PartsOfSpeech lists the canonical part-of-speech names.
func PartsOfSpeech() []string {
	out := make([]string, 0, len(required))
	for pos := range required {
		out = append(out, pos)
	}
	sort.Strings(out)
	return out
}

// PartOfSpeech canonicalises a lexical name. A unique prefix is accepted,
// so "adj" and "prep" work.
func PartOfSpeech(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", errors.Wrap(ErrUnknownPartOfSpeech, "empty name")
	}
	if _, ok := required[key]; ok {
		return key, nil
	}
	var matches []string
	for pos := range required {
		if strings.HasPrefix(pos, key) {
			matches = append(matches, pos)
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.Wrapf(ErrUnknownPartOfSpeech, "%q", name)
	case 1:
		return matches[0], nil
	}
	sort.Strings(matches)
	return "", errors.Wrapf(ErrAmbiguousPartOfSpeech, "%q matches %s", name, strings.Join(matches, ", "))
}

// RequiredCategories returns the categories a token of pos must carry after
// resolution. Unknown parts of speech require nothing.
func RequiredCategories(pos string) []Category {
	return append([]Category(nil), required[pos]...)
}
