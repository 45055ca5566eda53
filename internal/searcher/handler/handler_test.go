package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/reindex"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/search"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store/memory"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/metrics"
)

var productType = schema.DocumentType{
	Name:   "Product",
	IDType: schema.IDString,
	Fields: []schema.FieldSpec{{Name: "title", N: 2}, {Name: "description", N: 2}},
}

type capturePublisher struct {
	events []kafka.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type testServer struct {
	mux     *http.ServeMux
	metrics *metrics.Metrics
	scores  *cache.SimilarityCache
	queries *cache.QueryNGramCache
	pub     *capturePublisher
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	reg, err := schema.NewRegistry(productType)
	require.NoError(t, err)
	ngrams := memory.NewNGramStore()
	docs := memory.NewDocumentStore()
	items := []store.Document{
		{ID: "p1", Fields: map[string]string{"title": "apple pie", "description": "sweet baked apple"}},
		{ID: "p2", Fields: map[string]string{"title": "apple juice", "description": "pressed fruit"}},
		{ID: "p3", Fields: map[string]string{"title": "banana", "description": "yellow"}},
	}
	for _, d := range items {
		docs.Put(productType.Name, d)
	}
	require.NoError(t, ngrams.SaveAll(context.Background(), reindex.Generate(productType, items)))

	queries := cache.NewQueryNGramCache(cache.Options{Capacity: 100})
	scores := cache.NewSimilarityCache(cache.Options{Capacity: 1000})
	ranker := search.New(reg, ngrams, docs, queries, scores, similarity.DefaultRegistry())

	ts := &testServer{mux: http.NewServeMux(), scores: scores, queries: queries}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	}
	ts.metrics = opts.Metrics
	if pub, ok := opts.Reindex.(*capturePublisher); ok {
		ts.pub = pub
	}
	New(ranker, queries, scores, opts).Register(ts.mux)
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSearchReturnsRankedDocuments(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/api/v1/search?type=Product&fields=title,description&q=apple+pie")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, similarity.CosineName, resp.Strategy)
	require.GreaterOrEqual(t, len(resp.Results), 2)
	assert.Equal(t, "p1", resp.Results[0].DocumentID)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
	assert.Equal(t, "apple pie", resp.Results[0].Document.Fields["title"])
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.SearchQueriesTotal.WithLabelValues("Product", "ok")))
}

func TestSearchLimitAndStrategy(t *testing.T) {
	ts := newTestServer(t, Options{MaxResults: 5})
	rec := ts.do(t, http.MethodGet, "/api/v1/search?type=Product&fields=title&q=apple&strategy=jaccard&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, similarity.JaccardName, resp.Strategy)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.TotalHits)
}

func TestSearchErrors(t *testing.T) {
	ts := newTestServer(t, Options{})
	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing type", "/api/v1/search?fields=title&q=x", http.StatusBadRequest},
		{"missing fields", "/api/v1/search?type=Product&q=x", http.StatusBadRequest},
		{"bad limit", "/api/v1/search?type=Product&fields=title&q=x&limit=0", http.StatusBadRequest},
		{"unknown type", "/api/v1/search?type=Nope&fields=title&q=x", http.StatusNotFound},
		{"unconfigured field", "/api/v1/search?type=Product&fields=price&q=x", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tc.target)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSearchZeroResults(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/api/v1/search?type=Product&fields=title&q=x")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.SearchQueriesTotal.WithLabelValues("Product", "zero_result")))
}

func TestCacheStatsAndPurge(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.do(t, http.MethodGet, "/api/v1/search?type=Product&fields=title&q=apple")
	require.Positive(t, ts.scores.Stats().Entries)

	rec := ts.do(t, http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Contains(t, stats, cache.QueryCacheName)
	assert.Contains(t, stats, cache.SimilarityCacheName)

	rec = ts.do(t, http.MethodPost, "/api/v1/cache/purge?type=Other")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Positive(t, ts.scores.Stats().Entries)

	rec = ts.do(t, http.MethodPost, "/api/v1/cache/purge?type=Product")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, ts.scores.Stats().Entries)

	ts.do(t, http.MethodGet, "/api/v1/search?type=Product&fields=title&q=apple")
	rec = ts.do(t, http.MethodPost, "/api/v1/cache/purge")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, ts.scores.Stats().Entries)
	assert.Zero(t, ts.queries.Stats().Entries)
}

func TestReindexPublishesRequest(t *testing.T) {
	ts := newTestServer(t, Options{Reindex: &capturePublisher{}})
	rec := ts.do(t, http.MethodPost, "/api/v1/reindex?type=Product")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, ts.pub.events, 1)
	assert.Equal(t, "Product", ts.pub.events[0].Key)
	req, ok := ts.pub.events[0].Value.(reindex.Request)
	require.True(t, ok)
	assert.Equal(t, "Product", req.DocumentType)
}

func TestReindexUnavailable(t *testing.T) {
	ts := newTestServer(t, Options{})
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/v1/reindex").Code)

	ts = newTestServer(t, Options{Reindex: &capturePublisher{err: errors.New("broker down")}})
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/v1/reindex").Code)
}
