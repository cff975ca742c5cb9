// Package overlay is the durable local store: named JSON collections that
// layer local create/update/delete mutations over read-only remote data.
package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Collection keys.
const (
	KeyOrders       = "newOrders"
	KeyUsers        = "newUsers"
	KeyDeletedUsers = "deletedUsers"
)

// DefaultMaxBytes is the serialized size ceiling of a single collection.
const DefaultMaxBytes = 4 * 1024 * 1024

var (
	ErrCapacityExceeded = errors.New("local store capacity exceeded")
	ErrCorrupt          = errors.New("local store entry corrupt")
)

// CapacityError reports a rejected Put. Nothing was written.
type CapacityError struct {
	Key   string
	Size  int
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %s is %d bytes, limit %d", ErrCapacityExceeded, e.Key, e.Size, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// Backend stores raw collection payloads by key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Observer is notified about store outcomes; metrics.Metrics satisfies it.
type Observer interface {
	StoreWrite(key, result string)
}

type Store struct {
	backend  Backend
	maxBytes int
	log      *slog.Logger
	obs      Observer
}

func NewStore(b Backend, maxBytes int, log *slog.Logger, obs Observer) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: b, maxBytes: maxBytes, log: log, obs: obs}
}

func (s *Store) MaxBytes() int { return s.maxBytes }

func (s *Store) observe(key, result string) {
	if s.obs != nil {
		s.obs.StoreWrite(key, result)
	}
}

// Collection is a typed view of one key.
type Collection[T any] struct {
	store *Store
	key   string
}

func NewCollection[T any](s *Store, key string) *Collection[T] {
	return &Collection[T]{store: s, key: key}
}

func (c *Collection[T]) Key() string { return c.key }

// Get returns the stored sequence. A payload that does not parse as a JSON
// array is purged and reported as absent.
func (c *Collection[T]) Get(ctx context.Context) ([]T, bool, error) {
	raw, ok, err := c.store.backend.Load(ctx, c.key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", c.key, err)
	}
	if !ok || len(raw) == 0 {
		return nil, false, nil
	}
	var out []T
	// "null" decodes without error but is not a collection either.
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		c.store.log.Warn("local store entry corrupt, purging",
			"key", c.key, "error", errors.Join(ErrCorrupt, err))
		c.store.observe(c.key, "corrupt")
		if derr := c.store.backend.Delete(ctx, c.key); derr != nil {
			c.store.log.Error("purge corrupt entry", "key", c.key, "error", derr)
		}
		return nil, false, nil
	}
	return out, true, nil
}

// Put replaces the whole sequence. Payloads over the ceiling are rejected
// before the backend is touched.
func (c *Collection[T]) Put(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if len(b) > c.store.maxBytes {
		c.store.observe(c.key, "capacity")
		c.store.log.Warn("local store capacity exceeded",
			"key", c.key, "size", len(b), "limit", c.store.maxBytes)
		return &CapacityError{Key: c.key, Size: len(b), Limit: c.store.maxBytes}
	}
	if err := c.store.backend.Save(ctx, c.key, b); err != nil {
		c.store.observe(c.key, "error")
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	c.store.observe(c.key, "ok")
	return nil
}

func (c *Collection[T]) Remove(ctx context.Context) error {
	if err := c.store.backend.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("delete %s: %w", c.key, err)
	}
	return nil
}
