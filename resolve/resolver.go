// Package resolve turns a parsed template into per-token feature sets.
//
// Precedence, lowest first: the referenced group's resolved features, the
// group's own features, then each token's direct features. Only the last
// stage reports a conflict when it replaces a value.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/template"
)

// ErrIncompleteFeatures is wrapped by IncompleteFeaturesError.
var ErrIncompleteFeatures = errors.New("incomplete features")

// FeatureSet maps each category to its concrete feature.
type FeatureSet map[grammar.Category]template.Feature

// Values flattens the set to category → feature name.
func (fs FeatureSet) Values() map[grammar.Category]string {
	out := make(map[grammar.Category]string, len(fs))
	for cat, f := range fs {
		out[cat] = f.Name
	}
	return out
}

func (fs FeatureSet) clone() FeatureSet {
	out := make(FeatureSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Warning records a direct token feature replacing an inherited or group value.
type Warning struct {
	Group        int              `json:"group"`
	Token        int              `json:"token"`
	PartOfSpeech string           `json:"pos"`
	Category     grammar.Category `json:"category"`
	Previous     string           `json:"previous"`
	New          string           `json:"new"`
}

func (w Warning) String() string {
	return fmt.Sprintf("group %d %s overrides %s: %s -> %s", w.Group, w.PartOfSpeech, w.Category, w.Previous, w.New)
}

// IncompleteFeaturesError names the categories a token still lacks.
type IncompleteFeaturesError struct {
	Group        int
	Token        int
	PartOfSpeech string
	Missing      []grammar.Category
}

func (e *IncompleteFeaturesError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		missing[i] = string(c)
	}
	return fmt.Sprintf("%s in group %d is missing %s", e.PartOfSpeech, e.Group, strings.Join(missing, ", "))
}

func (e *IncompleteFeaturesError) Unwrap() error {
	return ErrIncompleteFeatures
}

// ResolvedToken is a word request ready for the lexicon.
type ResolvedToken struct {
	Group        int           `json:"group"`
	Index        int           `json:"index"`
	PartOfSpeech string        `json:"pos"`
	Features     FeatureSet    `json:"features"`
	Wildcards    []WildcardKey `json:"wildcards,omitempty"`
}

// Resolution is the result of resolving every token of a template.
type Resolution struct {
	Tokens   []ResolvedToken
	Warnings []Warning
}

// groupState is one arena slot: the group's resolved features and, for
// categories filled by a roll, the key of that roll.
type groupState struct {
	features FeatureSet
	origins  map[grammar.Category]WildcardKey
}

type resolver struct {
	tmpl  *template.Template
	cache *WildcardCache
	arena []*groupState
}

// Resolve computes the final feature set of every token in template order.
// Wildcards are rolled through cache, so calling Resolve again with the same
// cache reproduces the same values until keys are invalidated.
func Resolve(tmpl *template.Template, cache *WildcardCache) (*Resolution, error) {
	r := &resolver{
		tmpl:  tmpl,
		cache: cache,
		arena: make([]*groupState, len(tmpl.Groups)+1),
	}

	res := &Resolution{Tokens: make([]ResolvedToken, 0, tmpl.TokenCount())}
	for _, g := range tmpl.Groups {
		base, err := r.group(g.Position)
		if err != nil {
			return nil, err
		}
		for i, tok := range g.Tokens {
			rt, warnings, err := r.token(g.Position, i, tok, base)
			if err != nil {
				return nil, err
			}
			res.Tokens = append(res.Tokens, rt)
			res.Warnings = append(res.Warnings, warnings...)
		}
	}
	return res, nil
}

// group resolves the group at position, memoised in the arena.
func (r *resolver) group(position int) (*groupState, error) {
	if st := r.arena[position]; st != nil {
		return st, nil
	}
	g := r.tmpl.Groups[position-1]

	st := &groupState{features: FeatureSet{}, origins: map[grammar.Category]WildcardKey{}}
	if g.HasReference() {
		if g.Reference >= position || g.Reference > len(r.tmpl.Groups) {
			return nil, errors.Wrapf(template.ErrForwardReference, "group %d references group %d", position, g.Reference)
		}
		base, err := r.group(g.Reference)
		if err != nil {
			return nil, err
		}
		st.features = base.features.clone()
		for k, v := range base.origins {
			st.origins[k] = v
		}
	}

	for _, f := range g.Features {
		st.features[f.Category] = r.cache.Resolve(f, position)
		if f.IsWildcard() {
			st.origins[f.Category] = WildcardKey{Group: position, Category: f.Category}
		} else {
			delete(st.origins, f.Category)
		}
	}

	r.arena[position] = st
	return st, nil
}

func (r *resolver) token(position, index int, tok template.Token, base *groupState) (ResolvedToken, []Warning, error) {
	features := base.features.clone()
	origins := make(map[grammar.Category]WildcardKey, len(base.origins))
	for k, v := range base.origins {
		origins[k] = v
	}

	var warnings []Warning
	for _, f := range tok.DirectFeatures {
		resolved := r.cache.Resolve(f, position)
		if prev, ok := features[f.Category]; ok && prev.Name != resolved.Name {
			warnings = append(warnings, Warning{
				Group:        position,
				Token:        index,
				PartOfSpeech: tok.PartOfSpeech,
				Category:     f.Category,
				Previous:     prev.Name,
				New:          resolved.Name,
			})
		}
		features[f.Category] = resolved
		if f.IsWildcard() {
			origins[f.Category] = WildcardKey{Group: position, Category: f.Category}
		} else {
			delete(origins, f.Category)
		}
	}

	var missing []grammar.Category
	for _, cat := range grammar.RequiredCategories(tok.PartOfSpeech) {
		if _, ok := features[cat]; !ok {
			missing = append(missing, cat)
		}
	}
	if len(missing) > 0 {
		return ResolvedToken{}, nil, &IncompleteFeaturesError{
			Group:        position,
			Token:        index,
			PartOfSpeech: tok.PartOfSpeech,
			Missing:      missing,
		}
	}

	return ResolvedToken{
		Group:        position,
		Index:        index,
		PartOfSpeech: tok.PartOfSpeech,
		Features:     features,
		Wildcards:    sortedKeys(origins),
	}, warnings, nil
}

func sortedKeys(origins map[grammar.Category]WildcardKey) []WildcardKey {
	if len(origins) == 0 {
		return nil
	}
	keys := make([]WildcardKey, 0, len(origins))
	for _, k := range origins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Group != keys[j].Group {
			return keys[i].Group < keys[j].Group
		}
		return keys[i].Category < keys[j].Category
	})
	return keys
}
