// Package store defines the persistence boundary of the n-gram search core:
// the n-gram record index and the original document store. Implementations
// live in the postgres and memory subpackages.
package store

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/ngram"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
)

// NGramRecord is the indexed unit: the n-gram set of one field of one
// document. For a (DocumentID, Field) pair at most one N is live at a time.
type NGramRecord struct {
	ID             string   `json:"id"`
	DocumentID     string   `json:"document_id"`
	CollectionName string   `json:"collection_name"`
	Field          string   `json:"field"`
	N              int      `json:"n"`
	NGrams         []string `json:"ngrams"`
}

// Set returns the record's grams as a set.
func (r NGramRecord) Set() ngram.Set {
	return ngram.NewSet(r.NGrams...)
}

// Document is an original document: its identifier and the text of its
// fields, keyed by field name.
type Document struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// NGramStore persists NGramRecords. Lookups by (collection, field, n, grams)
// are on the search hot path and must be index-backed.
type NGramStore interface {
	// FindByCollectionFieldNGramsAndN returns records of collection/field with
	// gram size n that share at least one gram with grams.
	FindByCollectionFieldNGramsAndN(ctx context.Context, collection, field string, grams []string, n int) ([]NGramRecord, error)
	FindByDocumentIDAndField(ctx context.Context, collection, documentID, field string) ([]NGramRecord, error)
	DeleteByCollectionName(ctx context.Context, collection string) error
	SaveAll(ctx context.Context, records []NGramRecord) error
	// ReplaceCollection swaps every record of collection for records so that
	// concurrent readers observe either the old or the new set.
	ReplaceCollection(ctx context.Context, collection string, records []NGramRecord) error
}

// DocumentStore reads original documents of a registered type.
type DocumentStore interface {
	// FindAllByID returns the documents whose ids are in ids. Ids must already
	// be normalized with schema.DocumentType.NormalizeID. Unknown ids are skipped.
	FindAllByID(ctx context.Context, dt schema.DocumentType, ids []string) ([]Document, error)
	FindAll(ctx context.Context, dt schema.DocumentType) ([]Document, error)
}
