package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/reindex"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/search"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/similarity"
	pgstore "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/redis"
)

func setupLogging(c *cli.Context) error {
	logger.Setup(c.String("log-level"), "text")
	return nil
}

func generateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: ngramctl generate [--n N] <text>")
	}
	grams := ngram.Generate(c.Args().First(), c.Int("n"))
	fmt.Fprintf(c.App.Writer, "normalized: %q\n", ngram.Normalize(c.Args().First()))
	fmt.Fprintf(c.App.Writer, "%d grams: %s\n", len(grams), strings.Join(grams.Sorted(), " "))
	return nil
}

func similarityCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: ngramctl similarity [--n N] [--strategy S] <query> <document>")
	}
	n := c.Int("n")
	strategy := similarity.DefaultRegistry().Resolve(c.String("strategy"))
	score := strategy.Calculate(ngram.Generate(c.Args().Get(0), n), ngram.Generate(c.Args().Get(1), n))
	fmt.Fprintf(c.App.Writer, "%s: %.6f\n", strategy.Name(), score)
	return nil
}

// env is the database-backed wiring shared by search, validate and reindex.
type env struct {
	cfg      *config.Config
	registry *schema.Registry
	db       *postgres.Client
	ngrams   *pgstore.NGramStore
	docs     *pgstore.DocumentStore
}

func openEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	registry, err := schema.FromConfig(cfg.DocumentTypes)
	if err != nil {
		return nil, err
	}
	db, err := postgres.New(c.Context, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		registry: registry,
		db:       db,
		ngrams:   pgstore.NewNGramStore(db),
		docs:     pgstore.NewDocumentStore(db),
	}, nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: ngramctl search --type T --field F [--field F2] <query>")
	}
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.db.Close()

	ranker := search.New(e.registry, e.ngrams, e.docs,
		cache.NewQueryNGramCache(cache.Options{Capacity: e.cfg.NGram.QueryCacheSize}),
		cache.NewSimilarityCache(cache.Options{Capacity: e.cfg.NGram.SimilarityCacheSize}),
		similarity.DefaultRegistry().WithDefault(e.cfg.NGram.DefaultStrategy),
	)
	resp, err := ranker.Search(c.Context, search.Request{
		DocumentType: c.String("type"),
		Fields:       c.StringSlice("field"),
		Query:        c.Args().First(),
		Strategy:     c.String("strategy"),
		Limit:        c.Int("limit"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, resp)
}

func validateCommand(c *cli.Context) error {
	return runProcessor(c, false, func(ctx context.Context, p *reindex.Processor, documentType string) (*reindex.Report, error) {
		return p.Validate(ctx, documentType)
	})
}

func reindexCommand(c *cli.Context) error {
	return runProcessor(c, true, func(ctx context.Context, p *reindex.Processor, documentType string) (*reindex.Report, error) {
		return p.ValidateAndReindex(ctx, documentType)
	})
}

// runProcessor runs fn for the --type document type or for every registered
// one. Only write runs migrate the schema and take the lock.
func runProcessor(c *cli.Context, write bool, run func(context.Context, *reindex.Processor, string) (*reindex.Report, error)) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.db.Close()
	if write {
		if err := e.ngrams.Migrate(c.Context); err != nil {
			return err
		}
	}
	opts, closeAll := processorOptions(c.Context, e.cfg, write)
	defer closeAll()
	p := reindex.NewProcessor(e.registry, e.ngrams, e.docs, opts)

	var names []string
	if t := c.String("type"); t != "" {
		names = []string{t}
	} else {
		for _, dt := range e.registry.Types() {
			names = append(names, dt.Name)
		}
	}
	var (
		reports []*reindex.Report
		errs    []error
	)
	for _, name := range names {
		r, err := run(c.Context, p, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		reports = append(reports, r)
	}
	if err := printJSON(c, reports); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// processorOptions wires the Redis lock and the completion publisher for
// write runs the same way the indexer does. An unreachable Redis is logged and
// the run proceeds unlocked.
func processorOptions(ctx context.Context, cfg *config.Config, write bool) (reindex.Options, func()) {
	opts := reindex.Options{LockTTL: cfg.Reindex.LockTTL}
	var closers []func() error
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}
	if !write {
		return opts, closeAll
	}
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, reindex runs without a distributed lock", "error", err)
		} else {
			closers = append(closers, client.Close)
			opts.Locker = client
		}
	}
	if cfg.Kafka.Enabled {
		completions := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ReindexComplete)
		closers = append(closers, completions.Close)
		opts.Publisher = completions
	}
	return opts, closeAll
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
