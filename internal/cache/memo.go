package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoSize is the default capacity of a Memo.
const DefaultMemoSize = 100

// Memo is a bounded memoization cache with least-recently-used eviction and
// no time-based expiry. Failed computations are not stored.
//
// Concurrent misses on the same key each run compute; the last result wins.
type Memo[V any] struct {
	entries *lru.Cache[string, V]
}

// NewMemo creates a Memo holding at most size entries.
func NewMemo[V any](size int) (*Memo[V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("creating memo of size %d: %w", size, err)
	}
	return &Memo[V]{entries: entries}, nil
}

// GetOrCompute returns the memoized value for key, calling compute on a miss.
// hit reports whether the value came from the cache.
func (m *Memo[V]) GetOrCompute(key string, compute func() (V, error)) (value V, hit bool, err error) {
	if v, ok := m.entries.Get(key); ok {
		return v, true, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	m.entries.Add(key, v)
	return v, false, nil
}

// Len reports the number of memoized entries.
func (m *Memo[V]) Len() int {
	return m.entries.Len()
}
