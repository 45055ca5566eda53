// Package similarity scores a query n-gram set against a document n-gram set.
// Strategies are selected by name from a Registry; unknown names fall back to
// cosine similarity.
package similarity

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
)

// Canonical strategy names.
const (
	JaccardName = "jaccardSimilarity"
	CosineName  = "cosineSimilarity"
)

// Strategy computes a similarity score in [0, 1] between two n-gram sets.
// Implementations must be pure and safe for concurrent use.
type Strategy interface {
	// Name identifies the strategy. It is part of similarity cache keys, so
	// two strategies must never share a name.
	Name() string
	Calculate(query, doc ngram.Set) float64
}

// Registry resolves strategy names. It is immutable after construction.
type Registry struct {
	strategies map[string]Strategy
	aliases    map[string]string
	fallback   Strategy
}

// NewRegistry builds a registry from the given strategies. The strategy named
// fallback (canonical or alias) becomes the default for unknown names; if none
// matches, the first strategy is the default, and Cosine when none is given.
func NewRegistry(fallback string, strategies ...Strategy) *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy, len(strategies)),
		aliases:    make(map[string]string),
	}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
		short := strings.TrimSuffix(strings.ToLower(s.Name()), "similarity")
		if short != "" {
			r.aliases[short] = s.Name()
		}
	}
	if len(strategies) == 0 {
		r.fallback = Cosine{}
		return r
	}
	r.fallback = strategies[0]
	r.fallback = r.Resolve(fallback)
	return r
}

// DefaultRegistry holds Jaccard and Cosine with Cosine as the default.
func DefaultRegistry() *Registry {
	return NewRegistry(CosineName, Jaccard{}, Cosine{})
}

// WithDefault returns a copy of r whose default is the strategy name resolves
// to. Names may be canonical or short aliases.
func (r *Registry) WithDefault(name string) *Registry {
	cp := *r
	cp.fallback = r.Resolve(name)
	return &cp
}

// Resolve returns the strategy registered under name (or its short alias such
// as "jaccard"). Empty or unknown names resolve to the default strategy.
func (r *Registry) Resolve(name string) Strategy {
	if s, ok := r.strategies[name]; ok {
		return s
	}
	if canonical, ok := r.aliases[strings.ToLower(name)]; ok {
		return r.strategies[canonical]
	}
	return r.fallback
}

// Names lists the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
