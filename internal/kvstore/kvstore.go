// Package kvstore defines the key-value persistence substrate the community
// stores write through to. The interface abstracts named string blobs,
// allowing different backends (in-memory for testing, file, SQLite,
// Postgres, Redis, S3) while keeping the store layer clean.
package kvstore

import (
	"context"
	"errors"
)

// Store is the persistence collaborator: named blobs with synchronous
// get/set/remove. Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the blob stored under key.
	// Returns ErrKeyNotFound if the key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the blob under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

// Store errors
var (
	// ErrKeyNotFound indicates the key has no stored value.
	ErrKeyNotFound = errors.New("key not found")
)

// Stable key contract. Deployments that migrated from the original
// localStorage-backed implementation carry blobs under these names, so the
// names must not change.
const (
	// KeyUsers holds the serialized user roster.
	KeyUsers = "moddiUsers"

	// KeySession holds the serialized active session.
	KeySession = "currentUser"

	// KeyNews, KeyReviews, and KeyComments each hold one post category.
	KeyNews     = "moddiNews"
	KeyReviews  = "moddiReviews"
	KeyComments = "moddiComments"
)
