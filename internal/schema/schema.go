// Package schema is the static registry of searchable document types. Each
// type names the table holding its original documents, the type of its
// identifier, and the fields that carry n-gram indexes.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/errors"
)

// DefaultN is the gram size used when a field does not configure one.
const DefaultN = 2

// IDType is the storage type of a document identifier.
type IDType string

const (
	IDString IDType = "string"
	IDUUID   IDType = "uuid"
)

// FieldSpec tells the core which gram size applies to a field and whether a
// stored size that differs from it is fatal or triggers regeneration.
type FieldSpec struct {
	Name           string
	N              int
	FailOnMismatch bool
}

// DocumentType describes one registered type.
type DocumentType struct {
	Name     string
	Table    string
	IDColumn string
	IDType   IDType
	Fields   []FieldSpec
}

// Field returns the FieldSpec named name.
func (d DocumentType) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// NormalizeID checks that id is valid for the type's identifier and returns
// its canonical string form.
func (d DocumentType) NormalizeID(id string) (string, error) {
	switch d.IDType {
	case IDString:
		return id, nil
	case IDUUID:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return "", &apperrors.NGramError{
				Kind:         apperrors.ErrUnsupportedIdentifierType,
				DocumentType: d.Name,
				DocumentID:   id,
				Message:      "not a valid uuid",
				Err:          err,
			}
		}
		return parsed.String(), nil
	default:
		return "", &apperrors.NGramError{
			Kind:         apperrors.ErrUnsupportedIdentifierType,
			DocumentType: d.Name,
			DocumentID:   id,
			Message:      fmt.Sprintf("identifier type %q is neither string nor uuid", d.IDType),
		}
	}
}

// Registry maps type names to their definitions. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	types map[string]DocumentType
}

// NewRegistry registers the given types. Field gram sizes must be positive.
func NewRegistry(types ...DocumentType) (*Registry, error) {
	r := &Registry{types: make(map[string]DocumentType, len(types))}
	for _, dt := range types {
		if _, dup := r.types[dt.Name]; dup {
			return nil, fmt.Errorf("document type %q registered twice", dt.Name)
		}
		for _, f := range dt.Fields {
			if f.N < 1 {
				return nil, apperrors.Newf(apperrors.ErrInvalidFieldConfiguration, dt.Name,
					"field %q: n must be >= 1, got %d", f.Name, f.N)
			}
		}
		r.types[dt.Name] = dt
	}
	return r, nil
}

// FromConfig builds a Registry from the documentTypes config section,
// applying the defaults n=2, failOnMismatch=true, idType=string and
// table=lower-cased type name.
func FromConfig(cfgs []config.DocumentTypeConfig) (*Registry, error) {
	types := make([]DocumentType, 0, len(cfgs))
	for _, c := range cfgs {
		dt := DocumentType{
			Name:     c.Name,
			Table:    c.Table,
			IDColumn: c.IDColumn,
			IDType:   IDType(strings.ToLower(c.IDType)),
		}
		if dt.Table == "" {
			dt.Table = strings.ToLower(c.Name)
		}
		if dt.IDColumn == "" {
			dt.IDColumn = "id"
		}
		if dt.IDType == "" {
			dt.IDType = IDString
		}
		for _, f := range c.Fields {
			spec := FieldSpec{Name: f.Name, N: f.N, FailOnMismatch: true}
			if spec.N == 0 {
				spec.N = DefaultN
			}
			if f.FailOnMismatch != nil {
				spec.FailOnMismatch = *f.FailOnMismatch
			}
			dt.Fields = append(dt.Fields, spec)
		}
		types = append(types, dt)
	}
	return NewRegistry(types...)
}

// Lookup returns the registered type called name.
func (r *Registry) Lookup(name string) (DocumentType, error) {
	dt, ok := r.types[name]
	if !ok {
		return DocumentType{}, apperrors.New(apperrors.ErrUnknownDocumentType, name, "not registered")
	}
	return dt, nil
}

// Types returns every registered type ordered by name.
func (r *Registry) Types() []DocumentType {
	out := make([]DocumentType, 0, len(r.types))
	for _, dt := range r.types {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
