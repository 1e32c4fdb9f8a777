// Package grammar holds the static feature catalog: grammatical categories,
// their concrete values, the wildcardable categories, and the parts of speech
// with the categories each one requires.
package grammar

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/syntaxis/syntaxis/errors"
)

// Category is a grammatical dimension such as case or gender.
type Category string

const (
	Case   Category = "case"
	Gender Category = "gender"
	Number Category = "number"
	Tense  Category = "tense"
	Voice  Category = "voice"
	Mood   Category = "mood"
	Person Category = "person"
	Type   Category = "type"
)

// Categories lists every category in catalog order.
var Categories = []Category{Case, Gender, Number, Tense, Voice, Mood, Person, Type}

var (
	// ErrUnknownFeature is returned when a name matches no catalog entry.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrAmbiguousFeature is returned when a prefix matches several entries.
	ErrAmbiguousFeature = errors.New("ambiguous feature")
)

// Entry is the catalog view of a feature name.
type Entry struct {
	Name     string
	Category Category
	Wildcard bool
}

var values = map[Category][]string{
	Case:   {"nom", "gen", "acc", "voc"},
	Gender: {"masc", "fem", "neut"},
	Number: {"sg", "pl"},
	Tense:  {"present", "aorist", "paratatikos"},
	Voice:  {"active", "passive"},
	Mood:   {"ind", "imp"},
	Person: {"pri", "sec", "ter"},
	Type: {
		"personal_strong", "personal_weak", "demonstrative", "interrogative",
		"possessive", "relative", "definite", "indefinite",
	},
}

// Long spellings accepted in templates and seed files.
var aliases = map[string]string{
	"nominative": "nom",
	"genitive":   "gen",
	"accusative": "acc",
	"vocative":   "voc",
	"masculine":  "masc",
	"feminine":   "fem",
	"neuter":     "neut",
	"singular":   "sg",
	"plural":     "pl",
	"imperfect":  "paratatikos",
	"indicative": "ind",
	"imperative": "imp",
	"first":      "pri",
	"second":     "sec",
	"third":      "ter",
	"1st":        "pri",
	"2nd":        "sec",
	"3rd":        "ter",
}

var wildcardable = map[Category]bool{
	Gender: true,
	Number: true,
	Person: true,
}

var byName map[string]Entry

func init() {
	byName = make(map[string]Entry)
	for cat, names := range values {
		for _, n := range names {
			byName[n] = Entry{Name: n, Category: cat}
		}
	}
	for cat := range wildcardable {
		byName[string(cat)] = Entry{Name: string(cat), Category: cat, Wildcard: true}
	}
}

// Lookup resolves a feature name to its catalog entry. Canonical names and
// long aliases match exactly; wildcard categories may be written as
// "gender", "*gender*" or "gender*"; anything else must be a unique prefix of
// a canonical name.
func Lookup(name string) (Entry, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Entry{}, errors.Wrap(ErrUnknownFeature, "empty feature name")
	}
	if e, ok := byName[key]; ok {
		return e, nil
	}
	if canon, ok := aliases[key]; ok {
		return byName[canon], nil
	}
	if stripped := strings.Trim(key, "*"); stripped != key {
		if e, ok := byName[stripped]; ok && e.Wildcard {
			return e, nil
		}
		return Entry{}, errors.Wrapf(ErrUnknownFeature, "%q is not a wildcard category", name)
	}

	var matches []string
	for n := range byName {
		if strings.HasPrefix(n, key) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return Entry{}, errors.Wrapf(ErrUnknownFeature, "%q", name)
	case 1:
		return byName[matches[0]], nil
	}
	sort.Strings(matches)
	return Entry{}, errors.Wrapf(ErrAmbiguousFeature, "%q matches %s", name, strings.Join(matches, ", "))
}

// CategoryOf returns the category a feature name belongs to.
func CategoryOf(name string) (Category, error) {
	e, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return e.Category, nil
}

// Values returns the concrete values of a category in catalog order.
func Values(c Category) []string {
	return append([]string(nil), values[c]...)
}

// IsWildcardable reports whether templates may leave c to a random pick.
func IsWildcardable(c Category) bool {
	return wildcardable[c]
}

// Suggest returns catalog names sharing the longest possible leading prefix
// with name, closest edit distance first, for error hints.
func Suggest(name string) []string {
	key := strings.ToLower(strings.Trim(name, "* "))
	for n := len(key); n > 0; n-- {
		var out []string
		for cand := range byName {
			if strings.HasPrefix(cand, key[:n]) {
				out = append(out, cand)
			}
		}
		if len(out) > 0 {
			sort.Slice(out, func(i, j int) bool {
				di, dj := fuzzy.LevenshteinDistance(key, out[i]), fuzzy.LevenshteinDistance(key, out[j])
				if di != dj {
					return di < dj
				}
				return out[i] < out[j]
			})
			if len(out) > 5 {
				out = out[:5]
			}
			return out
		}
	}
	return nil
}
