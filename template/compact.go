package template

import (
	"strconv"
	"strings"
)

// ParseCompact parses grouped notation:
//
//	(article noun{fem})@{nom:masc:sg} (adjective)@$1
//
// Each group ends in either a feature list or a back-reference, never both.
func ParseCompact(s string) (*Template, error) {
	if err := checkBalance(s); err != nil {
		return nil, err
	}

	tmpl := &Template{Notation: NotationCompact}
	refOffsets := make(map[int]int)

	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		index := len(tmpl.Groups) + 1

		if s[i] != '(' {
			return nil, newParseError(KindMalformedToken, "expected '(' to start a group").
				at(s, i, word(s, i)).inGroup(index)
		}

		open := i
		closeAt := open + strings.IndexByte(s[open:], ')')
		tokens, err := parseGroupBody(s, open, closeAt, index)
		if err != nil {
			return nil, err
		}

		group := Group{Tokens: tokens, Position: index}
		next, err := parseSuffix(s, closeAt+1, open, index, &group)
		if err != nil {
			return nil, err
		}
		if group.HasReference() {
			refOffsets[index] = closeAt + 1
		}
		tmpl.Groups = append(tmpl.Groups, group)
		i = next
	}

	if len(tmpl.Groups) == 0 {
		return nil, newParseError(KindEmptyTemplate, "template has no groups")
	}

	for _, g := range tmpl.Groups {
		if !g.HasReference() {
			continue
		}
		off := refOffsets[g.Position]
		snippet := "@$" + strconv.Itoa(g.Reference)
		if g.Reference < 1 || g.Reference > len(tmpl.Groups) {
			return nil, newParseError(KindDanglingReference, "group %d references group %d, which does not exist", g.Position, g.Reference).
				at(s, off, snippet).inGroup(g.Position).
				withSuggestion("templates have groups 1 to " + strconv.Itoa(len(tmpl.Groups)))
		}
		if g.Reference >= g.Position {
			return nil, newParseError(KindForwardReference, "group %d references group %d, which is not an earlier group", g.Position, g.Reference).
				at(s, off, snippet).inGroup(g.Position)
		}
	}

	return tmpl, nil
}

// checkBalance validates parentheses and braces before any group is parsed.
// Groups and feature lists do not nest.
func checkBalance(s string) error {
	parenOpen, braceOpen := -1, -1
	group := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			if parenOpen >= 0 {
				return newParseError(KindUnclosedGroup, "group is not closed before the next one starts").
					at(s, parenOpen, s[parenOpen:i]).inGroup(group)
			}
			if braceOpen >= 0 {
				return newParseError(KindUnclosedBrace, "feature list is not closed").
					at(s, braceOpen, s[braceOpen:i]).inGroup(group)
			}
			group++
			parenOpen = i
		case ')':
			if braceOpen >= 0 {
				return newParseError(KindUnclosedBrace, "feature list is not closed").
					at(s, braceOpen, s[braceOpen:i]).inGroup(group)
			}
			if parenOpen < 0 {
				return newParseError(KindUnclosedGroup, "unmatched ')'").at(s, i, ")").inGroup(group)
			}
			parenOpen = -1
		case '{':
			if braceOpen >= 0 {
				return newParseError(KindUnclosedBrace, "feature list is not closed").
					at(s, braceOpen, s[braceOpen:i]).inGroup(group)
			}
			braceOpen = i
		case '}':
			if braceOpen < 0 {
				return newParseError(KindUnclosedBrace, "unmatched '}'").at(s, i, "}").inGroup(group)
			}
			braceOpen = -1
		}
	}
	if braceOpen >= 0 {
		return newParseError(KindUnclosedBrace, "feature list is not closed").
			at(s, braceOpen, s[braceOpen:]).inGroup(group).withSuggestion("close the list with '}'")
	}
	if parenOpen >= 0 {
		return newParseError(KindUnclosedGroup, "group is not closed").
			at(s, parenOpen, s[parenOpen:]).inGroup(group).withSuggestion("close the group with ')'")
	}
	return nil
}

// parseGroupBody parses the token specs between s[open] and s[closeAt].
func parseGroupBody(s string, open, closeAt, index int) ([]Token, error) {
	var tokens []Token
	i := open + 1
	for i < closeAt {
		if isSpace(s[i]) {
			i++
			continue
		}

		start := i
		for i < closeAt && !isSpace(s[i]) && s[i] != '{' {
			if s[i] == '@' || s[i] == '}' {
				return nil, newParseError(KindMalformedToken, "unexpected %q inside group", s[i]).
					at(s, i, s[start:i+1]).inGroup(index)
			}
			i++
		}
		name := s[start:i]
		if name == "" {
			return nil, newParseError(KindMalformedToken, "feature override without a word").
				at(s, start, word(s, start)).inGroup(index)
		}
		pos, err := parsePartOfSpeech(s, name, start, index)
		if err != nil {
			return nil, err
		}

		tok := Token{PartOfSpeech: pos}
		if i < closeAt && s[i] == '{' {
			end := i + strings.IndexByte(s[i:], '}')
			list := s[i+1 : end]
			if strings.TrimSpace(list) == "" {
				return nil, newParseError(KindMalformedToken, "empty feature override").
					at(s, start, s[start:end+1]).inGroup(index)
			}
			tok.DirectFeatures, err = parseFeatureList(s, list, i+1, index)
			if err != nil {
				return nil, err
			}
			i = end + 1
			if i < closeAt && !isSpace(s[i]) {
				return nil, newParseError(KindMalformedToken, "expected whitespace after feature override").
					at(s, start, s[start:i+1]).inGroup(index)
			}
		}
		tokens = append(tokens, tok)
	}

	if len(tokens) == 0 {
		return nil, newParseError(KindEmptyGroup, "group has no words").
			at(s, open, s[open:closeAt+1]).inGroup(index)
	}
	return tokens, nil
}

// parseSuffix parses "@{...}" or "@$N" starting at s[i] and returns the
// offset just past it.
func parseSuffix(s string, i, open, index int, group *Group) (int, error) {
	if i >= len(s) || s[i] != '@' {
		return 0, newParseError(KindMalformedToken, "group must be followed by @{features} or @$N").
			at(s, open, s[open:i]).inGroup(index)
	}
	i++

	switch {
	case i < len(s) && s[i] == '{':
		end := i + strings.IndexByte(s[i:], '}')
		features, err := parseFeatureList(s, s[i+1:end], i+1, index)
		if err != nil {
			return 0, err
		}
		group.Features = features
		i = end + 1
		if i < len(s) && (s[i] == '$' || s[i] == '@') {
			return 0, mixedSuffix(s, open, i, index)
		}

	case i < len(s) && s[i] == '$':
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if start == i {
			return 0, newParseError(KindMalformedToken, "reference needs a group number").
				at(s, open, s[open:i]).inGroup(index).withSuggestion("write @$1 to reuse the first group's features")
		}
		// Only a range error is possible here; Atoi then returns the max int,
		// which fails reference validation below.
		n, _ := strconv.Atoi(s[start:i])
		if n < 1 {
			return 0, newParseError(KindDanglingReference, "group %d references group %d, which does not exist", index, n).
				at(s, start-2, s[start-2:i]).inGroup(index)
		}
		group.Reference = n
		if i < len(s) && (s[i] == '{' || s[i] == '@') {
			return 0, mixedSuffix(s, open, i, index)
		}

	default:
		return 0, newParseError(KindMalformedToken, "group must be followed by @{features} or @$N").
			at(s, open, s[open:i]).inGroup(index)
	}

	if i < len(s) && !isSpace(s[i]) {
		return 0, newParseError(KindMalformedToken, "unexpected text after group").
			at(s, i, word(s, i)).inGroup(index)
	}
	return i, nil
}

func mixedSuffix(s string, open, i, index int) error {
	return newParseError(KindMixedSuffix, "group %d has both a feature list and a reference", index).
		at(s, open, s[open:i]+word(s, i)).inGroup(index).
		withSuggestion("use either @{features} or @$N", "override single words with word{feature} instead")
}

// word returns the whitespace-delimited run starting at s[i].
func word(s string, i int) string {
	end := i
	for end < len(s) && !isSpace(s[end]) {
		end++
	}
	return s[i:end]
}
