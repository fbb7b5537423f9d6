package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when no object exists at a path.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidPath is returned for paths that are absolute or escape the storage root.
	ErrInvalidPath = errors.New("invalid object path")
)

// Storage is a flat object store addressed by slash-separated relative paths.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	// Open returns the object content. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
