package template

import (
	"strings"
)

// ParseVerbose parses bracket notation: whitespace-separated [pos:f1:f2...]
// tokens, each becoming a single-token group that carries the listed
// features as group features.
func ParseVerbose(s string) (*Template, error) {
	tmpl := &Template{Notation: NotationVerbose}

	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		index := len(tmpl.Groups) + 1

		if s[i] != '[' {
			end := i
			for end < len(s) && !isSpace(s[end]) && s[end] != '[' {
				end++
			}
			return nil, newParseError(KindMalformedToken, "expected '[' to start a token").
				at(s, i, s[i:end]).inGroup(index)
		}

		open := i
		closeAt := -1
		for j := open + 1; j < len(s); j++ {
			if s[j] == '[' {
				return nil, newParseError(KindMalformedToken, "nested '[' inside token").
					at(s, open, s[open:j+1]).inGroup(index)
			}
			if s[j] == ']' {
				closeAt = j
				break
			}
		}
		if closeAt < 0 {
			return nil, newParseError(KindMalformedToken, "unbalanced '[': missing ']'").
				at(s, open, s[open:]).inGroup(index).withSuggestion("close the token with ']'")
		}

		group, err := parseBracket(s, open, closeAt, index)
		if err != nil {
			return nil, err
		}
		tmpl.Groups = append(tmpl.Groups, group)
		i = closeAt + 1
	}

	if len(tmpl.Groups) == 0 {
		return nil, newParseError(KindEmptyTemplate, "template has no tokens")
	}
	return tmpl, nil
}

// parseBracket parses the contents of s[open..closeAt].
func parseBracket(s string, open, closeAt, index int) (Group, error) {
	body := s[open+1 : closeAt]
	if strings.TrimSpace(body) == "" {
		return Group{}, newParseError(KindMalformedToken, "empty token").
			at(s, open, s[open:closeAt+1]).inGroup(index)
	}

	name, list, hasList := strings.Cut(body, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, newParseError(KindMalformedToken, "token has no part of speech").
			at(s, open, s[open:closeAt+1]).inGroup(index)
	}
	if hasList && strings.TrimSpace(list) == "" {
		return Group{}, newParseError(KindMalformedToken, "trailing ':' with no feature").
			at(s, open, s[open:closeAt+1]).inGroup(index)
	}

	pos, err := parsePartOfSpeech(s, name, open+1, index)
	if err != nil {
		return Group{}, err
	}

	listOffset := open + 1 + len(body) - len(list)
	features, err := parseFeatureList(s, list, listOffset, index)
	if err != nil {
		return Group{}, err
	}

	return Group{
		Tokens:   []Token{{PartOfSpeech: pos}},
		Features: features,
		Position: index,
	}, nil
}
