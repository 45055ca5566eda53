package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
)

func TestJaccard(t *testing.T) {
	q := ngram.NewSet("ap", "pp")
	d := ngram.NewSet("ap", "pp", "le")
	assert.InDelta(t, 2.0/3.0, Jaccard{}.Calculate(q, d), 1e-9)
}

func TestCosine(t *testing.T) {
	q := ngram.NewSet("ap", "pp")
	d := ngram.NewSet("ap", "pp", "le")
	assert.InDelta(t, 2/(math.Sqrt(2)*math.Sqrt(3)), Cosine{}.Calculate(q, d), 1e-9)
	assert.InDelta(t, 0.816, Cosine{}.Calculate(q, d), 1e-3)
}

// cosineByVectors is the textbook formulation over the union vocabulary.
func cosineByVectors(a, b ngram.Set) float64 {
	vocab := ngram.NewSet()
	for g := range a {
		vocab[g] = struct{}{}
	}
	for g := range b {
		vocab[g] = struct{}{}
	}
	var dot, na, nb float64
	for g := range vocab {
		var x, y float64
		if a.Contains(g) {
			x = 1
		}
		if b.Contains(g) {
			y = 1
		}
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestStrategyProperties(t *testing.T) {
	sets := []ngram.Set{
		ngram.NewSet(),
		ngram.NewSet("ap"),
		ngram.NewSet("ap", "pp"),
		ngram.NewSet("ap", "pp", "le"),
		ngram.NewSet("xy", "yz"),
		ngram.Generate("apple pie", 2),
		ngram.Generate("apple tart", 2),
	}
	for _, s := range []Strategy{Jaccard{}, Cosine{}} {
		t.Run(s.Name(), func(t *testing.T) {
			for _, a := range sets {
				for _, b := range sets {
					ab, ba := s.Calculate(a, b), s.Calculate(b, a)
					assert.Equal(t, ab, ba, "symmetry")
					assert.GreaterOrEqual(t, ab, 0.0)
					assert.LessOrEqual(t, ab, 1.0)
					if len(a) == 0 || len(b) == 0 {
						assert.Zero(t, ab)
					}
				}
				if len(a) > 0 {
					assert.Equal(t, 1.0, s.Calculate(a, a), "identical sets score 1")
				}
			}
		})
	}
}

func TestCosineMatchesVectorFormula(t *testing.T) {
	a := ngram.Generate("fuzzy matching", 2)
	b := ngram.Generate("fuzzy searching", 2)
	assert.InDelta(t, cosineByVectors(a, b), Cosine{}.Calculate(a, b), 1e-12)
	assert.Greater(t, Cosine{}.Calculate(a, b), Jaccard{}.Calculate(a, b),
		"partial overlap is penalized less by cosine")
}

func TestRegistryResolve(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		name string
		want string
	}{
		{JaccardName, JaccardName},
		{CosineName, CosineName},
		{"jaccard", JaccardName},
		{"COSINE", CosineName},
		{"", CosineName},
		{"levenshtein", CosineName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Resolve(tt.name).Name(), "resolve %q", tt.name)
	}
	assert.Equal(t, []string{CosineName, JaccardName}, r.Names())
}

func TestRegistryWithDefault(t *testing.T) {
	base := DefaultRegistry()
	r := base.WithDefault("jaccard")
	assert.Equal(t, JaccardName, r.Resolve("").Name())
	assert.Equal(t, CosineName, r.Resolve("cosine").Name())
	assert.Equal(t, CosineName, base.Resolve("").Name(), "base registry unchanged")
	assert.Equal(t, CosineName, base.WithDefault("unknown").Resolve("").Name())
}

func TestRegistryUnknownFallback(t *testing.T) {
	r := NewRegistry("nope", Jaccard{})
	require.NotNil(t, r.Resolve(""))
	assert.Equal(t, JaccardName, r.Resolve("").Name())

	empty := NewRegistry("nope")
	require.NotNil(t, empty.Resolve("x"))
	assert.Equal(t, CosineName, empty.Resolve("x").Name())

	assert.Equal(t, JaccardName, NewRegistry("jaccard", Cosine{}, Jaccard{}).Resolve("").Name(),
		"fallback may be given by alias")
}

func BenchmarkStrategies(b *testing.B) {
	q := ngram.Generate("approximate string matching", 2)
	d := ngram.Generate("approximate text matching with n-grams", 2)
	for _, s := range []Strategy{Jaccard{}, Cosine{}} {
		b.Run(s.Name(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = s.Calculate(q, d)
			}
		})
	}
}
