// Package persist defines the Backend interface for snapshot persistence
// and a coalescing writer that batches store mutations into backend writes.
// Backends store opaque JSON blobs by key; the state layer never depends on
// a concrete backend.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// ErrCorrupt marks a snapshot that exists but cannot be decoded.
// Callers fall back to defaults instead of failing startup.
var ErrCorrupt = errors.New("snapshot corrupt")

// Backend is the interface for snapshot persistence backends.
type Backend interface {
	// Load retrieves the snapshot stored under key.
	// Returns ErrNotFound if the key has never been written.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store writes the snapshot under key, replacing any previous value.
	Store(ctx context.Context, key string, data []byte) error

	// Delete removes the snapshot under key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys with a stored snapshot.
	Keys(ctx context.Context) ([]string, error)

	// Type returns the backend type identifier
	// ("local", "sqlite", "postgres", "redis", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}

// LoadJSON loads the snapshot under key and unmarshals it into v.
// Decode failures are reported as ErrCorrupt so callers can distinguish
// them from absent keys and backend errors.
func LoadJSON(ctx context.Context, b Backend, key string, v any) error {
	data, err := b.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrCorrupt, key, err)
	}
	return nil
}
