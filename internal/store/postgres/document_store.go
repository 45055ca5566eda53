package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/postgres"
)

// DocumentStore reads original documents from the table registered for each
// type. Only the id column and the n-gram fields are selected.
type DocumentStore struct {
	db *postgres.Client
}

func NewDocumentStore(db *postgres.Client) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) FindAllByID(ctx context.Context, dt schema.DocumentType, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	arrayType := "text[]"
	if dt.IDType == schema.IDUUID {
		arrayType = "uuid[]"
	}
	query := fmt.Sprintf("%s WHERE %s = ANY($1::%s)", selectDocuments(dt), pq.QuoteIdentifier(dt.IDColumn), arrayType)
	rows, err := s.db.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying %s by id: %w", dt.Table, err)
	}
	return scanDocuments(rows, dt)
}

func (s *DocumentStore) FindAll(ctx context.Context, dt schema.DocumentType) ([]store.Document, error) {
	query := selectDocuments(dt) + " ORDER BY 1"
	rows, err := s.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying all of %s: %w", dt.Table, err)
	}
	return scanDocuments(rows, dt)
}

func selectDocuments(dt schema.DocumentType) string {
	cols := make([]string, 0, len(dt.Fields)+1)
	cols = append(cols, pq.QuoteIdentifier(dt.IDColumn)+"::text")
	for _, f := range dt.Fields {
		cols = append(cols, pq.QuoteIdentifier(f.Name))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), pq.QuoteIdentifier(dt.Table))
}

func scanDocuments(rows *sql.Rows, dt schema.DocumentType) ([]store.Document, error) {
	defer rows.Close()
	var out []store.Document
	for rows.Next() {
		var id string
		values := make([]sql.NullString, len(dt.Fields))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", dt.Table, err)
		}
		doc := store.Document{ID: id, Fields: make(map[string]string, len(dt.Fields))}
		for i, f := range dt.Fields {
			if values[i].Valid {
				doc.Fields[f.Name] = values[i].String
			}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", dt.Table, err)
	}
	return out, nil
}
