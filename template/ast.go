// Package template parses sentence templates into an immutable AST.
//
// Two notations are accepted. The verbose notation lists one bracket per word:
//
//	[article:nom:masc:sg] [noun:nom:masc:sg]
//
// The compact notation groups words that share features and lets later groups
// borrow the features of an earlier one:
//
//	(article noun)@{nom:masc:sg} (verb)@{present:active:ter:sg} (article noun{acc})@$1
package template

import (
	"strconv"
	"strings"

	"github.com/syntaxis/syntaxis/grammar"
)

// Notation identifies the surface syntax a template was written in.
type Notation int

const (
	NotationVerbose Notation = 1
	NotationCompact Notation = 2
)

func (n Notation) String() string {
	switch n {
	case NotationVerbose:
		return "verbose"
	case NotationCompact:
		return "compact"
	}
	return "unknown"
}

// FeatureKind tells concrete features from wildcards.
type FeatureKind int

const (
	Concrete FeatureKind = iota
	Wildcard
)

func (k FeatureKind) String() string {
	if k == Wildcard {
		return "wildcard"
	}
	return "concrete"
}

// Feature is either a concrete value or a wildcard standing for any value
// of its category. Wildcards leave Name empty.
type Feature struct {
	Kind     FeatureKind      `json:"kind"`
	Name     string           `json:"name,omitempty"`
	Category grammar.Category `json:"category"`
}

// ConcreteFeature builds a concrete feature without consulting the catalog.
func ConcreteFeature(name string, cat grammar.Category) Feature {
	return Feature{Kind: Concrete, Name: name, Category: cat}
}

// WildcardFeature builds a wildcard over cat.
func WildcardFeature(cat grammar.Category) Feature {
	return Feature{Kind: Wildcard, Category: cat}
}

// IsWildcard reports whether f still needs a random pick.
func (f Feature) IsWildcard() bool {
	return f.Kind == Wildcard
}

// String renders f as it would appear in a template.
func (f Feature) String() string {
	if f.Kind == Wildcard {
		return string(f.Category)
	}
	return f.Name
}

// Token is one word slot.
type Token struct {
	PartOfSpeech   string    `json:"pos"`
	DirectFeatures []Feature `json:"direct_features,omitempty"`
}

// Group is a parenthesised run of tokens sharing features. Position is
// 1-based; Reference is 0 when the group does not borrow from another.
type Group struct {
	Tokens    []Token   `json:"tokens"`
	Features  []Feature `json:"features,omitempty"`
	Position  int       `json:"position"`
	Reference int       `json:"reference,omitempty"`
}

// HasReference reports whether g borrows features from an earlier group.
func (g Group) HasReference() bool {
	return g.Reference > 0
}

// Template is the parsed form of a template string.
type Template struct {
	Groups   []Group  `json:"groups"`
	Notation Notation `json:"notation"`
}

// TokenCount returns the number of word slots across all groups.
func (t *Template) TokenCount() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g.Tokens)
	}
	return n
}

// Group returns the group at a 1-based position.
func (t *Template) Group(position int) (Group, bool) {
	if position < 1 || position > len(t.Groups) {
		return Group{}, false
	}
	return t.Groups[position-1], true
}

// String renders t in compact notation. Verbose templates render as one
// group per token, so the result always parses back to an equivalent AST.
func (t *Template) String() string {
	var b strings.Builder
	for i, g := range t.Groups {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		for j, tok := range g.Tokens {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(tok.PartOfSpeech)
			if len(tok.DirectFeatures) > 0 {
				b.WriteByte('{')
				writeFeatures(&b, tok.DirectFeatures)
				b.WriteByte('}')
			}
		}
		b.WriteString(")@")
		if g.HasReference() {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(g.Reference))
		} else {
			b.WriteByte('{')
			writeFeatures(&b, g.Features)
			b.WriteByte('}')
		}
	}
	return b.String()
}

func writeFeatures(b *strings.Builder, fs []Feature) {
	for i, f := range fs {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(f.String())
	}
}
