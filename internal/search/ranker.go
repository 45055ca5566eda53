// Package search ranks documents of one type against a free-text query by
// n-gram similarity across one or more fields. A document's score is its best
// score over the requested fields.
package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/errors"
)

// Request is one search invocation. Strategy may be empty for the default
// metric; Limit <= 0 returns every match.
type Request struct {
	DocumentType string
	Fields       []string
	Query        string
	Strategy     string
	Limit        int
}

// Result pairs a matched document with its merged score.
type Result struct {
	DocumentID string         `json:"document_id"`
	Score      float64        `json:"score"`
	Document   store.Document `json:"document"`
}

// Response is the ranked outcome of a Request.
type Response struct {
	DocumentType string   `json:"document_type"`
	Query        string   `json:"query"`
	Strategy     string   `json:"strategy"`
	TotalHits    int      `json:"total_hits"`
	Results      []Result `json:"results"`
}

// Ranker is stateless apart from its two caches and is safe for concurrent use.
type Ranker struct {
	schema     *schema.Registry
	ngrams     store.NGramStore
	docs       store.DocumentStore
	queries    *cache.QueryNGramCache
	scores     *cache.SimilarityCache
	strategies *similarity.Registry
	logger     *slog.Logger
}

// New wires a Ranker. The caches may be shared with other components, for
// example the reindex invalidation handler.
func New(
	registry *schema.Registry,
	ngrams store.NGramStore,
	docs store.DocumentStore,
	queries *cache.QueryNGramCache,
	scores *cache.SimilarityCache,
	strategies *similarity.Registry,
) *Ranker {
	return &Ranker{
		schema:     registry,
		ngrams:     ngrams,
		docs:       docs,
		queries:    queries,
		scores:     scores,
		strategies: strategies,
		logger:     slog.Default().With("component", "ngram-ranker"),
	}
}

// Search scores every candidate of every requested field, keeps each
// document's maximum score, and returns the documents ordered by score
// descending with ties broken by document id ascending. Documents that match
// no field are not returned. Store errors are returned as ErrStoreFailure with
// the underlying cause (including context cancellation) preserved.
func (r *Ranker) Search(ctx context.Context, req Request) (*Response, error) {
	dt, err := r.schema.Lookup(req.DocumentType)
	if err != nil {
		return nil, err
	}
	if len(req.Fields) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, dt.Name, "at least one field is required")
	}
	specs := make([]schema.FieldSpec, 0, len(req.Fields))
	for _, name := range req.Fields {
		spec, ok := dt.Field(name)
		if !ok {
			return nil, apperrors.InvalidField(dt.Name, name)
		}
		specs = append(specs, spec)
	}
	strategy := r.strategies.Resolve(req.Strategy)

	merged := make(map[string]float64)
	for _, spec := range specs {
		if err := r.scoreField(ctx, dt, spec, req.Query, strategy, merged); err != nil {
			return nil, err
		}
	}

	resp := &Response{
		DocumentType: dt.Name,
		Query:        req.Query,
		Strategy:     strategy.Name(),
		Results:      []Result{},
	}
	if len(merged) == 0 {
		return resp, nil
	}

	results, err := r.fetchAndRank(ctx, dt, merged)
	if err != nil {
		return nil, err
	}
	resp.TotalHits = len(results)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	resp.Results = results

	r.logger.Debug("search ranked",
		"document_type", dt.Name,
		"fields", req.Fields,
		"strategy", strategy.Name(),
		"candidates", len(merged),
		"returned", len(results),
	)
	return resp, nil
}

func (r *Ranker) scoreField(
	ctx context.Context,
	dt schema.DocumentType,
	spec schema.FieldSpec,
	query string,
	strategy similarity.Strategy,
	merged map[string]float64,
) error {
	grams := r.queries.Get(query, spec.N)
	if len(grams) == 0 {
		return nil
	}
	sorted := grams.Sorted()
	records, err := r.ngrams.FindByCollectionFieldNGramsAndN(ctx, dt.Name, spec.Name, sorted, spec.N)
	if err != nil {
		e := apperrors.StoreFailure(dt.Name, "finding candidate records", err)
		e.Field = spec.Name
		return e
	}
	key := cache.SimilarityKey{DocumentType: dt.Name, Field: spec.Name, QueryGrams: grams.Canonical()}
	for _, rec := range records {
		key.DocumentID = rec.DocumentID
		score := r.scores.Score(key, strategy, grams, rec.Set())
		if prev, seen := merged[rec.DocumentID]; !seen || score > prev {
			merged[rec.DocumentID] = score
		}
	}
	return nil
}

func (r *Ranker) fetchAndRank(ctx context.Context, dt schema.DocumentType, merged map[string]float64) ([]Result, error) {
	ids := make([]string, 0, len(merged))
	byNormalized := make(map[string]float64, len(merged))
	for id, score := range merged {
		normalized, err := dt.NormalizeID(id)
		if err != nil {
			return nil, err
		}
		prev, seen := byNormalized[normalized]
		if !seen {
			ids = append(ids, normalized)
		}
		if !seen || score > prev {
			byNormalized[normalized] = score
		}
	}
	sort.Strings(ids)

	docs, err := r.docs.FindAllByID(ctx, dt, ids)
	if err != nil {
		return nil, apperrors.StoreFailure(dt.Name, "fetching original documents", err)
	}

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		score, ok := byNormalized[doc.ID]
		if !ok {
			continue
		}
		results = append(results, Result{DocumentID: doc.ID, Score: score, Document: doc})
	}
	if dropped := len(byNormalized) - len(results); dropped > 0 {
		r.logger.Warn("matched documents missing from store",
			"document_type", dt.Name,
			"missing", dropped,
		)
	}
	sortResults(results)
	return results, nil
}

// sortResults orders by score descending, then document id ascending.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
}
