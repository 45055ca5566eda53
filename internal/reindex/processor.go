// Package reindex validates stored n-gram records against the configured gram
// sizes and regenerates a document type's records when they are stale.
//
// Every (document, field) pair moves from Unchecked to Consistent, Mismatched
// or Missing. A Mismatched field on a FailOnMismatch field aborts with
// ErrSizeMismatch; any other Mismatched or Missing field rebuilds every record
// of the type in one ReplaceCollection call.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/kafka"
)

// Outcomes recorded per run.
const (
	OutcomeConsistent  = "consistent"
	OutcomeRegenerated = "regenerated"
	OutcomeFailed      = "failed"
	OutcomeLocked      = "locked"
)

// Locker serialises regeneration of one type across processes. It is
// satisfied by *redis.Client.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Recorder receives run metrics. It is satisfied by *metrics.Metrics.
type Recorder interface {
	ReindexRun(documentType, outcome string)
	RecordsWritten(documentType string, n int)
}

// Report summarises one validation run of a type.
type Report struct {
	DocumentType   string             `json:"document_type"`
	Documents      int                `json:"documents"`
	States         map[FieldState]int `json:"states"`
	Regenerated    bool               `json:"regenerated"`
	RecordsWritten int                `json:"records_written"`
	Duration       time.Duration      `json:"duration"`
}

// NeedsRegeneration reports whether the validated state requires a rebuild.
func (r *Report) NeedsRegeneration() bool {
	return r.States[Mismatched] > 0 || r.States[Missing] > 0
}

// Options configures a Processor. Every field except the stores is optional.
type Options struct {
	Locker    Locker
	LockTTL   time.Duration
	Publisher kafka.Publisher
	Recorder  Recorder
	Now       func() time.Time
}

// Processor runs the validation workflow. It holds no state between runs, so
// ValidateAndReindex is safe to call repeatedly.
type Processor struct {
	schema *schema.Registry
	ngrams store.NGramStore
	docs   store.DocumentStore
	opts   Options
	logger *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(registry *schema.Registry, ngrams store.NGramStore, docs store.DocumentStore, opts Options) *Processor {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		schema: registry,
		ngrams: ngrams,
		docs:   docs,
		opts:   opts,
		logger: slog.Default().With("component", "reindex"),
	}
}

// Validate classifies every (document, field) pair of the type without
// writing anything. Empty field values are skipped.
func (p *Processor) Validate(ctx context.Context, documentType string) (*Report, error) {
	dt, err := p.schema.Lookup(documentType)
	if err != nil {
		return nil, err
	}
	report, _, err := p.validate(ctx, dt)
	return report, err
}

func (p *Processor) validate(ctx context.Context, dt schema.DocumentType) (*Report, []store.Document, error) {
	docs, err := p.docs.FindAll(ctx, dt)
	if err != nil {
		return nil, nil, apperrors.StoreFailure(dt.Name, "loading documents", err)
	}
	report := &Report{
		DocumentType: dt.Name,
		Documents:    len(docs),
		States:       make(map[FieldState]int),
	}
	for _, doc := range docs {
		for _, spec := range dt.Fields {
			if doc.Fields[spec.Name] == "" {
				continue
			}
			state, err := p.checkField(ctx, dt, spec, doc.ID)
			if err != nil {
				return nil, nil, err
			}
			report.States[state]++
		}
	}
	return report, docs, nil
}

func (p *Processor) checkField(ctx context.Context, dt schema.DocumentType, spec schema.FieldSpec, documentID string) (FieldState, error) {
	records, err := p.ngrams.FindByDocumentIDAndField(ctx, dt.Name, documentID, spec.Name)
	if err != nil {
		e := apperrors.StoreFailure(dt.Name, "loading records", err)
		e.Field = spec.Name
		e.DocumentID = documentID
		return Unchecked, e
	}
	if len(records) == 0 {
		return Missing, nil
	}
	for _, rec := range records {
		if rec.N == spec.N {
			continue
		}
		if spec.FailOnMismatch {
			return Mismatched, apperrors.SizeMismatch(dt.Name, spec.Name, documentID, rec.N, spec.N)
		}
		return Mismatched, nil
	}
	return Consistent, nil
}

// ValidateAndReindex validates the type and, if any field is Missing or
// non-fatally Mismatched, replaces all of its records with freshly generated
// ones. A type that is already consistent is left untouched.
func (p *Processor) ValidateAndReindex(ctx context.Context, documentType string) (*Report, error) {
	start := p.opts.Now()
	dt, err := p.schema.Lookup(documentType)
	if err != nil {
		return nil, err
	}

	if p.opts.Locker != nil {
		release, ok, err := p.opts.Locker.Acquire(ctx, "reindex:"+dt.Name, p.opts.LockTTL)
		if err != nil {
			p.record(dt.Name, OutcomeFailed)
			return nil, apperrors.StoreFailure(dt.Name, "acquiring reindex lock", err)
		}
		if !ok {
			p.record(dt.Name, OutcomeLocked)
			return nil, apperrors.New(apperrors.ErrReindexInProgress, dt.Name, "another process holds the reindex lock")
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				p.logger.Warn("failed to release reindex lock", "document_type", dt.Name, "error", err)
			}
		}()
	}

	report, docs, err := p.validate(ctx, dt)
	if err != nil {
		p.record(dt.Name, OutcomeFailed)
		return nil, err
	}
	if !report.NeedsRegeneration() {
		report.Duration = p.opts.Now().Sub(start)
		p.record(dt.Name, OutcomeConsistent)
		p.logger.Debug("records consistent", "document_type", dt.Name, "documents", report.Documents)
		return report, nil
	}

	records := Generate(dt, docs)
	if err := p.ngrams.ReplaceCollection(ctx, dt.Name, records); err != nil {
		p.record(dt.Name, OutcomeFailed)
		return nil, apperrors.StoreFailure(dt.Name, "replacing records", err)
	}
	report.Regenerated = true
	report.RecordsWritten = len(records)
	report.States[Regenerated] = len(records)
	report.Duration = p.opts.Now().Sub(start)
	p.record(dt.Name, OutcomeRegenerated)
	if p.opts.Recorder != nil {
		p.opts.Recorder.RecordsWritten(dt.Name, len(records))
	}

	p.logger.Info("records regenerated",
		"document_type", dt.Name,
		"documents", report.Documents,
		"mismatched", report.States[Mismatched],
		"missing", report.States[Missing],
		"records", len(records),
		"duration", report.Duration,
	)
	p.publish(ctx, report)
	return report, nil
}

// ValidateAll runs ValidateAndReindex for every registered type. A failing
// type is logged and does not stop the others; all failures are joined.
func (p *Processor) ValidateAll(ctx context.Context) ([]*Report, error) {
	var (
		reports []*Report
		errs    []error
	)
	for _, dt := range p.schema.Types() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report, err := p.ValidateAndReindex(ctx, dt.Name)
		if err != nil {
			p.logger.Error("reindex failed", "document_type", dt.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", dt.Name, err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// Generate builds one record per (document, configured field) with a
// non-empty value, using each field's configured n. Fields whose text is too
// short for n still get a record with no grams so they are not reported
// Missing on the next run.
func Generate(dt schema.DocumentType, docs []store.Document) []store.NGramRecord {
	records := make([]store.NGramRecord, 0, len(docs)*len(dt.Fields))
	for _, doc := range docs {
		for _, spec := range dt.Fields {
			value := doc.Fields[spec.Name]
			if value == "" {
				continue
			}
			records = append(records, store.NGramRecord{
				ID:             uuid.NewString(),
				DocumentID:     doc.ID,
				CollectionName: dt.Name,
				Field:          spec.Name,
				N:              spec.N,
				NGrams:         ngram.Generate(value, spec.N).Sorted(),
			})
		}
	}
	return records
}

func (p *Processor) record(documentType, outcome string) {
	if p.opts.Recorder != nil {
		p.opts.Recorder.ReindexRun(documentType, outcome)
	}
}

func (p *Processor) publish(ctx context.Context, report *Report) {
	if p.opts.Publisher == nil {
		return
	}
	err := p.opts.Publisher.Publish(ctx, kafka.Event{
		Key: report.DocumentType,
		Value: CompleteEvent{
			DocumentType:   report.DocumentType,
			RecordsWritten: report.RecordsWritten,
			CompletedAt:    p.opts.Now().UTC(),
		},
	})
	if err != nil {
		// Searchers fall back to cache TTL expiry.
		p.logger.Warn("failed to publish reindex completion", "document_type", report.DocumentType, "error", err)
	}
}
