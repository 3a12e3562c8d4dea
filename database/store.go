package database

import (
	"context"
)

// Store persists whole JSON documents by key. Every backend reads and
// writes a document as a unit; there is no partial update.
type Store interface {
	// Load decodes the document stored under key into dst. It reports
	// false without error when the key has never been written.
	Load(ctx context.Context, key string, dst any) (bool, error)

	// Save replaces the document stored under key with v.
	Save(ctx context.Context, key string, v any) error

	Close() error
}
