package interfaces

import (
	"context"
)

// StorageBackend is a keyed blob store holding sender and receiver records.
type StorageBackend interface {
	// Fetch retrieves data by id. Returns ErrContentNotFound if absent.
	Fetch(ctx context.Context, id string) ([]byte, error)

	// Store saves data under id, replacing any previous value.
	Store(ctx context.Context, id string, data []byte) error

	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all ids starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}
