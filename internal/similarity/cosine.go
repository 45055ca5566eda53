package similarity

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
)

// Cosine treats each set as a 0/1 indicator vector over the union of both
// vocabularies. The dot product is then |A ∩ B| and each norm is sqrt(|set|),
// so the score is computed in closed form without materializing vectors.
type Cosine struct{}

func (Cosine) Name() string { return CosineName }

func (Cosine) Calculate(query, doc ngram.Set) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	dot := float64(query.IntersectionSize(doc))
	// sqrt(|A|*|B|) keeps A == B at exactly 1.
	return dot / math.Sqrt(float64(len(query)*len(doc)))
}
