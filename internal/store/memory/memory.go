// Package memory implements the store interfaces in process memory. It backs
// tests and the single-binary development mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/store"
)

// NGramStore keeps records grouped by collection.
type NGramStore struct {
	mu      sync.RWMutex
	records map[string][]store.NGramRecord
}

func NewNGramStore() *NGramStore {
	return &NGramStore{records: make(map[string][]store.NGramRecord)}
}

func (s *NGramStore) FindByCollectionFieldNGramsAndN(ctx context.Context, collection, field string, grams []string, n int) ([]store.NGramRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		wanted[g] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.NGramRecord
	for _, r := range s.records[collection] {
		if r.Field != field || r.N != n {
			continue
		}
		for _, g := range r.NGrams {
			if _, ok := wanted[g]; ok {
				out = append(out, cloneRecord(r))
				break
			}
		}
	}
	return out, nil
}

func (s *NGramStore) FindByDocumentIDAndField(ctx context.Context, collection, documentID, field string) ([]store.NGramRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.NGramRecord
	for _, r := range s.records[collection] {
		if r.DocumentID == documentID && r.Field == field {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (s *NGramStore) DeleteByCollectionName(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, collection)
	return nil
}

func (s *NGramStore) SaveAll(ctx context.Context, records []store.NGramRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.CollectionName] = append(s.records[r.CollectionName], cloneRecord(r))
	}
	return nil
}

func (s *NGramStore) ReplaceCollection(ctx context.Context, collection string, records []store.NGramRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fresh := make([]store.NGramRecord, 0, len(records))
	for _, r := range records {
		fresh = append(fresh, cloneRecord(r))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[collection] = fresh
	return nil
}

// All returns a copy of every record of collection.
func (s *NGramStore) All(collection string) []store.NGramRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.NGramRecord, 0, len(s.records[collection]))
	for _, r := range s.records[collection] {
		out = append(out, cloneRecord(r))
	}
	return out
}

func cloneRecord(r store.NGramRecord) store.NGramRecord {
	r.NGrams = append([]string(nil), r.NGrams...)
	return r
}

// DocumentStore keeps documents per type name.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]store.Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]map[string]store.Document)}
}

// Put inserts or replaces a document of the named type.
func (s *DocumentStore) Put(documentType string, doc store.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.docs[documentType]
	if !ok {
		byID = make(map[string]store.Document)
		s.docs[documentType] = byID
	}
	byID[doc.ID] = cloneDocument(doc)
}

// Delete removes a document of the named type.
func (s *DocumentStore) Delete(documentType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[documentType], id)
}

func (s *DocumentStore) FindAllByID(ctx context.Context, dt schema.DocumentType, ids []string) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[dt.Name][id]; ok {
			out = append(out, cloneDocument(doc))
		}
	}
	return out, nil
}

func (s *DocumentStore) FindAll(ctx context.Context, dt schema.DocumentType) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Document, 0, len(s.docs[dt.Name]))
	for _, doc := range s.docs[dt.Name] {
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneDocument(d store.Document) store.Document {
	fields := make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	d.Fields = fields
	return d
}
