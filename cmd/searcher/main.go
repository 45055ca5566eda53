package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/reindex"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/search"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/similarity"
	pgstore "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "document_types", len(cfg.DocumentTypes))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := schema.FromConfig(cfg.DocumentTypes)
	if err != nil {
		slog.Error("invalid document type configuration", "error", err)
		os.Exit(1)
	}

	var db *postgres.Client
	err = resilience.Retry(ctx, "connect postgres", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var err error
		db, err = postgres.New(ctx, cfg.Postgres)
		return err
	})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()
	queries := cache.NewQueryNGramCache(cache.Options{
		Capacity: cfg.NGram.QueryCacheSize,
		TTL:      cfg.NGram.QueryCacheTTL,
		Shards:   cfg.NGram.CacheShards,
		Recorder: m,
	})
	scores := cache.NewSimilarityCache(cache.Options{
		Capacity: cfg.NGram.SimilarityCacheSize,
		TTL:      cfg.NGram.SimilarityCacheTTL,
		Shards:   cfg.NGram.CacheShards,
		Recorder: m,
	})
	ranker := search.New(registry, pgstore.NewNGramStore(db), pgstore.NewDocumentStore(db), queries, scores, similarity.DefaultRegistry().WithDefault(cfg.NGram.DefaultStrategy))

	opts := handler.Options{
		Metrics:      m,
		DefaultLimit: cfg.NGram.DefaultLimit,
		MaxResults:   cfg.NGram.MaxResults,
	}
	if cfg.Kafka.Enabled {
		requests := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ReindexRequest)
		defer requests.Close()
		opts.Reindex = requests

		hostname, _ := os.Hostname()
		completions := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ReindexComplete, "searcher-"+hostname, reindex.InvalidateOnComplete(scores))
		go func() {
			if err := completions.Start(ctx); err != nil {
				slog.Error("reindex completion consumer error", "error", err)
			}
		}()
		slog.Info("listening for reindex completions", "topic", cfg.Kafka.Topics.ReindexComplete)
	}

	checker := health.NewChecker()
	checker.Register("postgres", health.PingCheck(db, false))

	mux := http.NewServeMux()
	handler.New(ranker, queries, scores, opts).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.Metrics(m),
		middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
