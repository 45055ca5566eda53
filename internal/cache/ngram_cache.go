package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/similarity"
)

const (
	QueryCacheName      = "query_ngrams"
	SimilarityCacheName = "similarity"

	DefaultQueryCapacity      = 1_000
	DefaultSimilarityCapacity = 10_000
	DefaultTTL                = 10 * time.Minute
)

// QueryNGramCache memoizes the n-gram set of a query for a given n. The key is
// built from the normalized query, so raw strings that normalize identically
// share one entry.
type QueryNGramCache struct {
	c *Cache[ngram.Set]
}

// NewQueryNGramCache wraps a Cache configured from opts.
func NewQueryNGramCache(opts Options) *QueryNGramCache {
	if opts.Name == "" {
		opts.Name = QueryCacheName
	}
	return &QueryNGramCache{c: New[ngram.Set](opts)}
}

// Get returns the n-gram set for query. The returned set is shared between
// callers and must not be modified.
func (q *QueryNGramCache) Get(query string, n int) ngram.Set {
	normalized := ngram.Normalize(query)
	key := normalized + "\x1f" + strconv.Itoa(n)
	grams, _, _ := q.c.GetOrCompute(key, func() (ngram.Set, error) {
		return ngram.Generate(normalized, n), nil
	})
	return grams
}

func (q *QueryNGramCache) Stats() Stats { return q.c.Stats() }

func (q *QueryNGramCache) Purge() { q.c.Purge() }

// SimilarityKey identifies one pairwise score. QueryGrams is the canonical
// serialization of the query n-gram set (ngram.Set.Canonical); callers scoring
// many candidates against one query compute it once.
type SimilarityKey struct {
	DocumentType string
	DocumentID   string
	Field        string
	QueryGrams   string
}

// SimilarityCache memoizes (type, document, field, strategy, query n-grams) -> score.
type SimilarityCache struct {
	c *Cache[float64]
}

// NewSimilarityCache wraps a Cache configured from opts.
func NewSimilarityCache(opts Options) *SimilarityCache {
	if opts.Name == "" {
		opts.Name = SimilarityCacheName
	}
	return &SimilarityCache{c: New[float64](opts)}
}

// Score returns the cached score for k under strategy, computing it from the
// two sets on a miss.
func (s *SimilarityCache) Score(k SimilarityKey, strategy similarity.Strategy, query, doc ngram.Set) float64 {
	if k.QueryGrams == "" {
		k.QueryGrams = query.Canonical()
	}
	score, _, _ := s.c.GetOrCompute(encodeSimilarityKey(k, strategy.Name()), func() (float64, error) {
		return strategy.Calculate(query, doc), nil
	})
	return score
}

// InvalidateType drops every score computed for documents of documentType.
// Scores depend on stored document n-grams, so they go stale after a reindex.
func (s *SimilarityCache) InvalidateType(documentType string) int {
	prefix := lengthPrefixed(documentType)
	return s.c.RemoveIf(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func (s *SimilarityCache) Stats() Stats { return s.c.Stats() }

func (s *SimilarityCache) Purge() { s.c.Purge() }

// encodeSimilarityKey length-prefixes the caller-controlled parts so that no
// two distinct keys serialize to the same string.
func encodeSimilarityKey(k SimilarityKey, strategy string) string {
	var b strings.Builder
	b.Grow(len(k.DocumentType) + len(k.DocumentID) + len(k.Field) + len(strategy) + len(k.QueryGrams) + 24)
	b.WriteString(lengthPrefixed(k.DocumentType))
	b.WriteString(lengthPrefixed(k.DocumentID))
	b.WriteString(lengthPrefixed(k.Field))
	b.WriteString(lengthPrefixed(strategy))
	b.WriteString(k.QueryGrams)
	return b.String()
}

func lengthPrefixed(s string) string {
	return strconv.Itoa(len(s)) + ":" + s + "|"
}
