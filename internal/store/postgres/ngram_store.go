// Package postgres implements the store interfaces on PostgreSQL. N-gram
// records live in a single table with a text[] column; candidate lookup uses
// the array overlap operator backed by a GIN index.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/postgres"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS ngrams (
	id              UUID PRIMARY KEY,
	document_id     TEXT NOT NULL,
	collection_name TEXT NOT NULL,
	field           TEXT NOT NULL,
	n               INTEGER NOT NULL CHECK (n > 0),
	ngrams          TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS ngrams_collection_field_n ON ngrams (collection_name, field, n);
CREATE INDEX IF NOT EXISTS ngrams_grams ON ngrams USING GIN (ngrams);
CREATE INDEX IF NOT EXISTS ngrams_document_field ON ngrams (document_id, field);
`

const selectColumns = `SELECT id, document_id, collection_name, field, n, ngrams FROM ngrams`

// NGramStore is the PostgreSQL store.NGramStore.
type NGramStore struct {
	db *postgres.Client
}

func NewNGramStore(db *postgres.Client) *NGramStore {
	return &NGramStore{db: db}
}

// Migrate creates the ngrams table and its indexes if they do not exist.
func (s *NGramStore) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrating ngrams schema: %w", err)
	}
	return nil
}

func (s *NGramStore) FindByCollectionFieldNGramsAndN(ctx context.Context, collection, field string, grams []string, n int) ([]store.NGramRecord, error) {
	if len(grams) == 0 {
		return nil, nil
	}
	rows, err := s.db.DB.QueryContext(ctx,
		selectColumns+` WHERE collection_name = $1 AND field = $2 AND n = $3 AND ngrams && $4`,
		collection, field, n, pq.Array(grams))
	if err != nil {
		return nil, fmt.Errorf("querying candidates for %s.%s: %w", collection, field, err)
	}
	return scanRecords(rows)
}

func (s *NGramStore) FindByDocumentIDAndField(ctx context.Context, collection, documentID, field string) ([]store.NGramRecord, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		selectColumns+` WHERE collection_name = $1 AND document_id = $2 AND field = $3`,
		collection, documentID, field)
	if err != nil {
		return nil, fmt.Errorf("querying records of document %s field %s: %w", documentID, field, err)
	}
	return scanRecords(rows)
}

func (s *NGramStore) DeleteByCollectionName(ctx context.Context, collection string) error {
	if _, err := s.db.DB.ExecContext(ctx, `DELETE FROM ngrams WHERE collection_name = $1`, collection); err != nil {
		return fmt.Errorf("deleting records of %s: %w", collection, err)
	}
	return nil
}

func (s *NGramStore) SaveAll(ctx context.Context, records []store.NGramRecord) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		return insertRecords(ctx, tx, records)
	})
}

// ReplaceCollection deletes and re-inserts in one transaction, so readers
// under READ COMMITTED keep seeing the old records until commit.
func (s *NGramStore) ReplaceCollection(ctx context.Context, collection string, records []store.NGramRecord) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ngrams WHERE collection_name = $1`, collection); err != nil {
			return fmt.Errorf("deleting records of %s: %w", collection, err)
		}
		return insertRecords(ctx, tx, records)
	})
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []store.NGramRecord) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ngrams (id, document_id, collection_name, field, n, ngrams) VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		grams := r.NGrams
		if grams == nil {
			grams = []string{}
		}
		if _, err := stmt.ExecContext(ctx, id, r.DocumentID, r.CollectionName, r.Field, r.N, pq.Array(grams)); err != nil {
			return fmt.Errorf("inserting record for document %s field %s: %w", r.DocumentID, r.Field, err)
		}
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]store.NGramRecord, error) {
	defer rows.Close()
	var out []store.NGramRecord
	for rows.Next() {
		var r store.NGramRecord
		var grams pq.StringArray
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.CollectionName, &r.Field, &r.N, &grams); err != nil {
			return nil, fmt.Errorf("scanning ngram record: %w", err)
		}
		r.NGrams = []string(grams)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ngram records: %w", err)
	}
	return out, nil
}
