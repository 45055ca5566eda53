// Package handler exposes the n-gram search core over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/reindex"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/search"
	apperrors "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/metrics"
)

// Searcher is satisfied by *search.Ranker.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Options configures optional collaborators. Nil fields disable the feature
// they back.
type Options struct {
	Metrics      *metrics.Metrics
	Reindex      kafka.Publisher
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	searcher Searcher
	queries  *cache.QueryNGramCache
	scores   *cache.SimilarityCache
	opts     Options
	logger   *slog.Logger
}

func New(searcher Searcher, queries *cache.QueryNGramCache, scores *cache.SimilarityCache, opts Options) *Handler {
	return &Handler{
		searcher: searcher,
		queries:  queries,
		scores:   scores,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/purge", h.CachePurge)
	mux.HandleFunc("POST /api/v1/reindex", h.Reindex)
}

// Search handles GET /api/v1/search?type=&fields=a,b&q=&strategy=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	documentType := params.Get("type")
	ctx := logger.WithDocumentType(r.Context(), documentType)
	log := logger.FromContext(ctx)

	if documentType == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'type' is required")
		return
	}
	fields := splitFields(params.Get("fields"))
	if len(fields) == 0 {
		h.writeError(w, http.StatusBadRequest, "query parameter 'fields' is required")
		return
	}

	limit := h.opts.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if h.opts.MaxResults > 0 && (limit <= 0 || limit > h.opts.MaxResults) {
		limit = h.opts.MaxResults
	}

	resp, err := h.searcher.Search(ctx, search.Request{
		DocumentType: documentType,
		Fields:       fields,
		Query:        params.Get("q"),
		Strategy:     params.Get("strategy"),
		Limit:        limit,
	})
	elapsed := time.Since(start)
	if err != nil {
		h.observe(documentType, "error", elapsed, 0)
		status := apperrors.HTTPStatusCode(err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		if status >= http.StatusInternalServerError {
			log.Error("search failed", "fields", fields, "error", err)
		} else {
			log.Debug("search rejected", "fields", fields, "error", err)
		}
		h.writeError(w, status, err.Error())
		return
	}

	outcome := "ok"
	if resp.TotalHits == 0 {
		outcome = "zero_result"
	}
	h.observe(documentType, outcome, elapsed, len(resp.Results))
	log.Info("search completed",
		"fields", fields,
		"strategy", resp.Strategy,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"latency_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats reports both caches.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		cache.QueryCacheName:      withHitRate(h.queries.Stats()),
		cache.SimilarityCacheName: withHitRate(h.scores.Stats()),
	})
}

// CachePurge clears both caches, or only similarity scores of one type when
// ?type= is given.
func (h *Handler) CachePurge(w http.ResponseWriter, r *http.Request) {
	if documentType := r.URL.Query().Get("type"); documentType != "" {
		removed := h.scores.InvalidateType(documentType)
		h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "document_type": documentType, "removed": removed})
		return
	}
	h.queries.Purge()
	h.scores.Purge()
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// Reindex publishes a reindex request for ?type= (or all types) to the
// indexers.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reindex == nil {
		h.writeError(w, http.StatusServiceUnavailable, "reindex requests are disabled")
		return
	}
	req := reindex.Request{
		DocumentType: r.URL.Query().Get("type"),
		RequestedBy:  logger.RequestID(r.Context()),
		RequestedAt:  time.Now().UTC(),
	}
	if err := h.opts.Reindex.Publish(r.Context(), kafka.Event{Key: req.DocumentType, Value: req}); err != nil {
		logger.FromContext(r.Context()).Error("failed to publish reindex request", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "failed to publish reindex request")
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "document_type": req.DocumentType})
}

func (h *Handler) observe(documentType, outcome string, elapsed time.Duration, results int) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveSearch(documentType, outcome, elapsed.Seconds(), results)
	}
}

type cacheStats struct {
	cache.Stats
	HitRate float64 `json:"hit_rate"`
}

func withHitRate(s cache.Stats) cacheStats {
	out := cacheStats{Stats: s}
	if total := s.Hits + s.Misses; total > 0 {
		out.HitRate = float64(s.Hits) / float64(total)
	}
	return out
}

func splitFields(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
