// internal/store/store.go
//
// Key-value persistence interface shared by every backend.
//
// The store offers per-key Get and Set only: no compare-and-swap and no
// multi-key transactions. Callers that read, modify, and write a value back
// can lose concurrent updates; that is a property of this contract, not a bug
// in any one backend.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value exists for a key.
var ErrNotFound = errors.New("not found")

// Store defines the key-value contract used by the presence and chat facades.
// Implementations may be backed by memory, SQLite, Postgres, etc.
type Store interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases any underlying resources.
	Close() error
}

// GetJSON decodes the value under key into dst.
// A missing key is not an error: found is false and dst is left untouched.
func GetJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
