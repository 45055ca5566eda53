// Package errors defines the closed set of failure kinds surfaced by the
// n-gram search core, plus a contextual error type that records the document
// type, field and document id at the point of failure.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidFieldConfiguration = errors.New("invalid field configuration")
	ErrSizeMismatch              = errors.New("n-gram size mismatch")
	ErrUnsupportedIdentifierType = errors.New("unsupported identifier type")
	ErrStoreFailure              = errors.New("store failure")
	ErrUnknownDocumentType       = errors.New("unknown document type")
	ErrInvalidInput              = errors.New("invalid input")
	ErrReindexInProgress         = errors.New("reindex already in progress")
)

// NGramError carries a failure kind together with the location it occurred at.
// Kind is one of the sentinel errors above; Err is the underlying cause, if any.
type NGramError struct {
	Kind         error
	DocumentType string
	Field        string
	DocumentID   string
	Message      string
	Err          error
}

func (e *NGramError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.DocumentType != "" {
		fmt.Fprintf(&b, " [type=%s", e.DocumentType)
		if e.Field != "" {
			fmt.Fprintf(&b, " field=%s", e.Field)
		}
		if e.DocumentID != "" {
			fmt.Fprintf(&b, " document=%s", e.DocumentID)
		}
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is this error's kind.
func (e *NGramError) Is(target error) bool {
	return target == e.Kind
}

func (e *NGramError) Unwrap() error {
	return e.Err
}

// New returns an NGramError of the given kind for a document type.
func New(kind error, documentType, message string) *NGramError {
	return &NGramError{Kind: kind, DocumentType: documentType, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind error, documentType, format string, args ...any) *NGramError {
	return New(kind, documentType, fmt.Sprintf(format, args...))
}

// InvalidField reports a search or reindex request against a field that has
// no n-gram configuration for the document type.
func InvalidField(documentType, field string) *NGramError {
	return &NGramError{
		Kind:         ErrInvalidFieldConfiguration,
		DocumentType: documentType,
		Field:        field,
		Message:      "field has no n-gram configuration",
	}
}

// SizeMismatch reports a stored record whose n differs from the configured n.
func SizeMismatch(documentType, field, documentID string, stored, expected int) *NGramError {
	return &NGramError{
		Kind:         ErrSizeMismatch,
		DocumentType: documentType,
		Field:        field,
		DocumentID:   documentID,
		Message:      fmt.Sprintf("stored n=%d, expected n=%d", stored, expected),
	}
}

// StoreFailure wraps an I/O error returned by the external store. The cause
// stays reachable through errors.Is, so context cancellation is not masked.
func StoreFailure(documentType, op string, err error) *NGramError {
	return &NGramError{
		Kind:         ErrStoreFailure,
		DocumentType: documentType,
		Message:      op,
		Err:          err,
	}
}

// HTTPStatusCode maps an error to the status code the search API returns.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFieldConfiguration), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownDocumentType):
		return http.StatusNotFound
	case errors.Is(err, ErrSizeMismatch), errors.Is(err, ErrReindexInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrStoreFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
