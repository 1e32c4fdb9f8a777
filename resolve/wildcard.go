package resolve

import (
	"math/rand/v2"

	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/template"
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// WildcardKey identifies one roll: a category within a group.
type WildcardKey struct {
	Group    int              `json:"group"`
	Category grammar.Category `json:"category"`
}

// WildcardCache remembers the value rolled for each (group, category) so a
// group and every group referencing it agree. It lives for one generation
// call and is not safe for concurrent use.
type WildcardCache struct {
	picker Picker
	values map[WildcardKey]string
}

// NewWildcardCache returns an empty cache. A nil picker uses the
// goroutine-safe global source from math/rand/v2.
func NewWildcardCache(p Picker) *WildcardCache {
	if p == nil {
		p = globalPicker{}
	}
	return &WildcardCache{picker: p, values: make(map[WildcardKey]string)}
}

// Resolve returns f unchanged when it is concrete. A wildcard is replaced by
// the cached roll for (position, category), rolling uniformly first if needed.
func (c *WildcardCache) Resolve(f template.Feature, position int) template.Feature {
	if !f.IsWildcard() {
		return f
	}
	key := WildcardKey{Group: position, Category: f.Category}
	if v, ok := c.values[key]; ok {
		return template.ConcreteFeature(v, f.Category)
	}
	choices := grammar.Values(f.Category)
	if len(choices) == 0 {
		return f
	}
	v := choices[c.picker.IntN(len(choices))]
	c.values[key] = v
	return template.ConcreteFeature(v, f.Category)
}

// Lookup returns the cached roll for key, if any.
func (c *WildcardCache) Lookup(key WildcardKey) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Invalidate drops the given rolls so the next Resolve picks again.
func (c *WildcardCache) Invalidate(keys ...WildcardKey) {
	for _, k := range keys {
		delete(c.values, k)
	}
}

// Len returns the number of cached rolls.
func (c *WildcardCache) Len() int {
	return len(c.values)
}
