// Package localstore provides the durable key/value store that stands in for
// browser local storage.
//
// Values are opaque strings, usually JSON documents. Three backends exist:
// [Memory] for tests, [File] persisted as a JSONL file in the data directory,
// and [Redis] for sharing state between processes.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imserv/voltage/internal/errors"
)

// Well known keys.
const (
	// KeyComments holds the whole comments table as a JSON array.
	KeyComments = "mock_comments"
	// KeySession holds the signed in user as a JSON object.
	KeySession = "mock_user"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the JSON value stored under key into a T.
//
// An absent key returns the zero T and ok false. A value that does not decode
// returns an error with code STORAGE_CORRUPT.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return v, false, errors.Storage(fmt.Sprintf("failed to read %s", key), err)
	}
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, errors.Corrupt(key, err)
	}
	return v, true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(data)); err != nil {
		return errors.Storage(fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}
