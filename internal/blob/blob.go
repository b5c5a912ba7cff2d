package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store is the bucket holding uploaded documents, their split pages and chat
// attachments. Paths are object names inside the bucket.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// List returns every object name under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, path string) error
}
