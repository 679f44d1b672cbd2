package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return errors satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blobstore: blob not found")

// BlobStore is an abstraction for storing and fetching packed archives as
// immutable blobs. Backends may be local or remote; every operation takes a
// context for cancellation.
type BlobStore interface {
	// Put stores the blob under name, replacing any existing blob.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the named blob for reading. The caller closes the reader.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the blob names matching the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
