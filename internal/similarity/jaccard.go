package similarity

import "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"

// Jaccard scores |A ∩ B| / |A ∪ B|.
type Jaccard struct{}

func (Jaccard) Name() string { return JaccardName }

func (Jaccard) Calculate(query, doc ngram.Set) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	shared := query.IntersectionSize(doc)
	union := len(query) + len(doc) - shared
	return float64(shared) / float64(union)
}
