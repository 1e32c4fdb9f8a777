package template

import (
	"strings"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
)

// parseFeatureList parses "f1:f2:..." found at byte offset base of src.
// An empty list yields no features; an empty segment inside a list is
// malformed. Each category may appear once per list.
func parseFeatureList(src, list string, base, group int) ([]Feature, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var out []Feature
	seen := make(map[grammar.Category]string)
	offset := base
	for _, raw := range strings.Split(list, ":") {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, newParseError(KindMalformedToken, "empty feature in list").
				at(src, offset, list).inGroup(group)
		}

		entry, err := grammar.Lookup(name)
		if err != nil {
			format := "unknown feature %q"
			if errors.Is(err, grammar.ErrAmbiguousFeature) {
				format = "ambiguous feature %q"
			}
			return nil, newParseError(KindUnknownFeature, format, name).
				at(src, offset, raw).inGroup(group).withUnderlying(err).
				withSuggestion(grammar.Suggest(name)...)
		}

		if prev, dup := seen[entry.Category]; dup {
			return nil, newParseError(KindDuplicateCategory, "%s given twice (%s and %s)", entry.Category, prev, name).
				at(src, offset, raw).inGroup(group)
		}
		seen[entry.Category] = name

		if entry.Wildcard {
			out = append(out, WildcardFeature(entry.Category))
		} else {
			out = append(out, ConcreteFeature(entry.Name, entry.Category))
		}
		offset += len(raw) + 1
	}
	return out, nil
}

// parsePartOfSpeech canonicalises a lexical name at offset of src.
func parsePartOfSpeech(src, name string, offset, group int) (string, error) {
	pos, err := grammar.PartOfSpeech(name)
	if err != nil {
		return "", newParseError(KindUnknownPOS, "unknown part of speech %q", name).
			at(src, offset, name).inGroup(group).withUnderlying(err).
			withSuggestion(grammar.PartsOfSpeech()...)
	}
	return pos, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
