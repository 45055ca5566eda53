package reindex

import "time"

// Request asks an indexer to validate and, if needed, regenerate one type.
// An empty DocumentType means every registered type.
type Request struct {
	DocumentType string    `json:"document_type"`
	RequestedBy  string    `json:"requested_by,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// CompleteEvent is published after a type's records were regenerated so that
// searchers can drop cached scores for it.
type CompleteEvent struct {
	DocumentType   string    `json:"document_type"`
	RecordsWritten int       `json:"records_written"`
	CompletedAt    time.Time `json:"completed_at"`
}
