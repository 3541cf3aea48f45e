// Package memory provides a process-local storage.Store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/storage"
)

var _ storage.Store = (*Store)(nil)

type item struct {
	data      []byte
	expiresAt time.Time // zero = never
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// Store is a thread-safe in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	items   map[string]item
	nowFunc func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// New creates an empty in-memory store.
func New(options ...Option) *Store {
	s := &Store{
		items:   make(map[string]item),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[buildKey(namespace, key)]
	if !ok || it.expired(s.nowFunc()) {
		return nil, storage.ErrNotFound
	}
	return clone(it.data), nil
}

func (s *Store) Create(_ context.Context, namespace, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := buildKey(namespace, key)
	if it, ok := s.items[k]; ok && !it.expired(s.nowFunc()) {
		return storage.ErrExists
	}
	s.items[k] = s.newItem(data, ttl)
	return nil
}

func (s *Store) Take(_ context.Context, namespace, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := buildKey(namespace, key)
	it, ok := s.items[k]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.items, k)
	if it.expired(s.nowFunc()) {
		return nil, storage.ErrNotFound
	}
	return it.data, nil
}

func (s *Store) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, buildKey(namespace, key))
	return nil
}

// Sweep removes expired records and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for k, it := range s.items {
		if it.expired(now) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) newItem(data []byte, ttl time.Duration) item {
	it := item{data: clone(data)}
	if ttl > 0 {
		it.expiresAt = s.nowFunc().Add(ttl)
	}
	return it
}

func buildKey(namespace, key string) string {
	return namespace + ":" + key
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
