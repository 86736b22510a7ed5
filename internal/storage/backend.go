// Package storage provides key-value backends for the record store. Each
// collection is one JSON blob under one key; the backend only moves bytes.
package storage

import "context"

// Backend is a flat key-value namespace. Implementations must be safe for
// concurrent use; the store above serializes read-modify-write cycles itself.
type Backend interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites the value wholesale.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
