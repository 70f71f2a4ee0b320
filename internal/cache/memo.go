package cache

import (
	"fmt"

	"github.com/maypok86/otter"
)

// DefaultCapacity bounds a Memo when no capacity is given.
const DefaultCapacity = 100_000

// Memo is a thread-safe read-through cache. Values, including nil ones, are
// computed once per key and kept until evicted by capacity.
type Memo[K comparable, V any] struct {
	cache otter.Cache[K, V]
}

// NewMemo creates a memo holding at most capacity entries.
func NewMemo[K comparable, V any](capacity int) (*Memo[K, V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c, err := otter.MustBuilder[K, V](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	return &Memo[K, V]{cache: c}, nil
}

// MustMemo is like NewMemo but panics on error.
func MustMemo[K comparable, V any](capacity int) *Memo[K, V] {
	m, err := NewMemo[K, V](capacity)
	if err != nil {
		panic(err)
	}
	return m
}

// Get returns the cached value for key.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	return m.cache.Get(key)
}

// Set stores value under key.
func (m *Memo[K, V]) Set(key K, value V) {
	m.cache.Set(key, value)
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Errors are not cached.
func (m *Memo[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	m.cache.Set(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	return m.cache.Size()
}

// Close stops the cache's background maintenance.
func (m *Memo[K, V]) Close() {
	m.cache.Close()
}
