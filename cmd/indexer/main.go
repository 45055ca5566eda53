package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/reindex"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	pgstore "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/redis"
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
	slog.Info("starting indexer service", "document_types", len(cfg.DocumentTypes))

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

	ngrams := pgstore.NewNGramStore(db)
	if err := ngrams.Migrate(ctx); err != nil {
		slog.Error("failed to migrate ngram schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	opts := reindex.Options{LockTTL: cfg.Reindex.LockTTL, Recorder: m}
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, reindex runs without a distributed lock", "error", err)
		} else {
			defer redisClient.Close()
			opts.Locker = redisClient
		}
	}
	if cfg.Kafka.Enabled {
		completions := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ReindexComplete)
		defer completions.Close()
		opts.Publisher = completions
	}
	processor := reindex.NewProcessor(registry, ngrams, pgstore.NewDocumentStore(db), opts)

	if cfg.Reindex.ValidateOnStart {
		reports, err := processor.ValidateAll(ctx)
		for _, r := range reports {
			slog.Info("document type validated",
				"document_type", r.DocumentType,
				"documents", r.Documents,
				"regenerated", r.Regenerated,
				"records_written", r.RecordsWritten,
			)
		}
		if err != nil {
			slog.Error("startup validation finished with failures", "error", err)
		}
	}

	if !cfg.Kafka.Enabled {
		slog.Info("kafka disabled, indexer idle until shutdown")
		<-ctx.Done()
		slog.Info("indexer service stopped")
		return
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ReindexRequest, "", reindex.RequestHandler(processor))
	slog.Info("indexer service ready, consuming reindex requests",
		"topic", cfg.Kafka.Topics.ReindexRequest,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}
	slog.Info("indexer service stopped")
}
