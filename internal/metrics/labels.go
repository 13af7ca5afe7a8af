package metrics

import (
	"sort"
	"strings"
)

// Labels is the caller-facing label form, as recorded by instrumentation code.
type Labels map[string]string

type labelPair struct {
	Name  string
	Value string
}

// LabelSet is the canonical, order-independent form of a label set. Pairs are
// sorted by label name so that two sets with the same name/value pairs always
// produce the same key, regardless of how the caller assembled the map.
type LabelSet struct {
	pairs []labelPair
	key   string
}

// NewLabelSet canonicalizes a Labels map into a LabelSet.
func NewLabelSet(labels Labels) LabelSet {
	if len(labels) == 0 {
		return LabelSet{}
	}

	pairs := make([]labelPair, 0, len(labels))
	for name, value := range labels {
		pairs = append(pairs, labelPair{Name: name, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })

	// Build the lookup key from the sorted pairs. The separators cannot
	// appear in valid label names, so distinct sets never collide.
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(0x00)
		}
		b.WriteString(p.Name)
		b.WriteByte(0x01)
		b.WriteString(p.Value)
	}

	return LabelSet{pairs: pairs, key: b.String()}
}

// Key returns the canonical map key for this label set.
func (ls LabelSet) Key() string { return ls.key }

// Len returns the number of labels.
func (ls LabelSet) Len() int { return len(ls.pairs) }

// Names returns the label names in sorted order.
func (ls LabelSet) Names() []string {
	names := make([]string, len(ls.pairs))
	for i, p := range ls.pairs {
		names[i] = p.Name
	}
	return names
}

// Get returns the value for a label name.
func (ls LabelSet) Get(name string) (string, bool) {
	for _, p := range ls.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Equal reports whether both sets contain the same name/value pairs.
func (ls LabelSet) Equal(other LabelSet) bool { return ls.key == other.key }

// sameNames reports whether the set's label names match the given sorted list.
func (ls LabelSet) sameNames(names []string) bool {
	if len(ls.pairs) != len(names) {
		return false
	}
	for i, p := range ls.pairs {
		if p.Name != names[i] {
			return false
		}
	}
	return true
}
