// Package storage defines the record store behind registered clients,
// pending interactions, login sessions and authorization codes.
//
// Records are opaque byte slices addressed by a namespace and a key. Every
// write is a single atomic operation on one key, which is all the
// authorization flow needs: registration creates a record, code issuance
// creates a record if absent, and code redemption takes (reads and deletes)
// a record in one step so a code can never be redeemed twice.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("storage: not found")

	// ErrExists is returned by Create when the key is already present.
	ErrExists = errors.New("storage: key already exists")
)

// Namespaces used by the gateway.
const (
	NamespaceClients      = "clients"
	NamespaceInteractions = "interactions"
	NamespaceSessions     = "sessions"
	NamespaceCodes        = "codes"
)

// Store is a namespaced key/value store with per-record expiry.
// A ttl of zero means the record never expires.
type Store interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Create stores a record only if the key is absent, otherwise ErrExists.
	Create(ctx context.Context, namespace, key string, data []byte, ttl time.Duration) error

	// Take atomically returns and deletes a record, or ErrNotFound.
	Take(ctx context.Context, namespace, key string) ([]byte, error)

	// Delete removes a record. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// Close releases backend resources.
	Close() error
}

// GetJSON loads and decodes a record.
func GetJSON[T any](ctx context.Context, s Store, namespace, key string) (*T, error) {
	data, err := s.Get(ctx, namespace, key)
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

// TakeJSON atomically removes and decodes a record.
func TakeJSON[T any](ctx context.Context, s Store, namespace, key string) (*T, error) {
	data, err := s.Take(ctx, namespace, key)
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

// CreateJSON encodes and stores a record only if the key is absent.
func CreateJSON(ctx context.Context, s Store, namespace, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s/%s: %w", namespace, key, err)
	}
	return s.Create(ctx, namespace, key, data, ttl)
}

func decode[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("storage: decode: %w", err)
	}
	return &v, nil
}
