package ngram

import (
	"sort"
	"strings"
)

// Set is an unordered, deduplicated collection of n-grams.
type Set map[string]struct{}

// NewSet builds a Set from a slice, collapsing duplicates.
func NewSet(grams ...string) Set {
	s := make(Set, len(grams))
	for _, g := range grams {
		s[g] = struct{}{}
	}
	return s
}

// Contains reports whether g is in the set.
func (s Set) Contains(g string) bool {
	_, ok := s[g]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Canonical returns a stable serialization of the set, suitable as part of a
// cache key. Normalized grams never contain ',' so the join is unambiguous.
func (s Set) Canonical() string {
	return strings.Join(s.Sorted(), ",")
}

// IntersectionSize counts the members shared by s and other.
func (s Set) IntersectionSize(other Set) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for g := range small {
		if _, ok := large[g]; ok {
			n++
		}
	}
	return n
}

// Equal reports set equality.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	return s.IntersectionSize(other) == len(s)
}
