package lexicon

import (
	"embed"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
)

//go:embed seeds/*.yaml
var builtin embed.FS

// Seed is a batch of dictionary entries in the YAML import format.
type Seed struct {
	Name    string       `yaml:"name" json:"name"`
	Lexemes []SeedLexeme `yaml:"lexemes" json:"lexemes"`
}

// SeedLexeme is one dictionary word with its inflected forms.
type SeedLexeme struct {
	Lemma        string     `yaml:"lemma" json:"lemma"`
	PartOfSpeech string     `yaml:"pos" json:"pos"`
	Translations []string   `yaml:"translations,omitempty" json:"translations,omitempty"`
	Forms        []SeedForm `yaml:"forms" json:"forms"`
}

// SeedForm is one surface form. Features are catalog names or aliases;
// categories left out are unmarked.
type SeedForm struct {
	Form     string   `yaml:"form" json:"form"`
	Features []string `yaml:"features,omitempty" json:"features,omitempty"`
}

// LoadSeed decodes a YAML seed document. Unknown keys are rejected.
func LoadSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.NewInvalidRequestError("empty seed document")
		}
		return nil, errors.Wrap(err, "failed to decode seed")
	}
	return &s, nil
}

// BuiltinSeeds returns the seeds embedded in the binary, ordered by file name.
func BuiltinSeeds() ([]*Seed, error) {
	entries, err := builtin.ReadDir("seeds")
	if err != nil {
		return nil, errors.Wrap(err, "read builtin seeds")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	seeds := make([]*Seed, 0, len(names))
	for _, name := range names {
		f, err := builtin.Open(path.Join("seeds", name))
		if err != nil {
			return nil, errors.Wrapf(err, "open builtin seed %s", name)
		}
		s, err := LoadSeed(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "builtin seed %s", name)
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// canonicalForm maps a seed form's feature names onto catalog columns.
func canonicalForm(lemma string, f SeedForm) (map[grammar.Category]string, error) {
	out := make(map[grammar.Category]string, len(f.Features))
	for _, name := range f.Features {
		e, err := grammar.Lookup(name)
		if err != nil {
			err = errors.Wrapf(err, "%s: form %q", lemma, f.Form)
			if hints := grammar.Suggest(name); len(hints) > 0 {
				err = errors.WithHintf(err, "did you mean: %s", strings.Join(hints, ", "))
			}
			return nil, err
		}
		if e.Wildcard {
			return nil, errors.NewInvalidRequestError(
				"%s: form %q has wildcard %q; seed forms must be concrete", lemma, f.Form, name)
		}
		if prev, ok := out[e.Category]; ok {
			return nil, errors.NewInvalidRequestError(
				"%s: form %q sets %s twice (%s, %s)", lemma, f.Form, e.Category, prev, e.Name)
		}
		out[e.Category] = e.Name
	}
	return out, nil
}
