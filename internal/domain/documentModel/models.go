package documentModel

import (
	"context"
	"time"
)

type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusDeleted     Status = "deleted"
)

type DocumentMetadata struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	Subject    string    `json:"subject"`
	Title      string    `json:"title"`
	TotalPages int       `json:"total_pages"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasPageSource reports whether split page locations can be derived for the
// document.
func (m DocumentMetadata) HasPageSource() bool {
	return m.Subject != "" && m.FileName != ""
}

// MetadataStore persists one record per source document. Records are keyed
// for lookup by their source path.
type MetadataStore interface {
	// UpsertByPath writes meta, reusing the live record for meta.Path when one
	// exists so that redelivered upload events do not create duplicates.
	// Returns the stored record.
	UpsertByPath(ctx context.Context, meta DocumentMetadata) (DocumentMetadata, error)
	FindByPath(ctx context.Context, path string) (DocumentMetadata, bool, error)
	GetByID(ctx context.Context, id string) (DocumentMetadata, bool, error)
	MarkDeleted(ctx context.Context, id string) error
}
