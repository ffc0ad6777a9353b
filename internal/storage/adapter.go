package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("storage: key not found")

// Adapter defines the interface for storage backends
type Adapter interface {
	// Put stores data at the given path, replacing any previous value
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Close cleans up any resources
	Close() error
}
