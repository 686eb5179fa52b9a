// Package repository keeps pipeline run records in memory.
package repository

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/donorflow/pkg/metrics"
)

const defaultCapacity = 500

// Store provides read/write access to run records keyed by run id.
type Store[V any] interface {
	// Put inserts or replaces the record for id.
	Put(ctx context.Context, id string, v V) error
	// Get returns ErrNotFound if id is unknown or was evicted.
	Get(ctx context.Context, id string) (V, error)
	// Recent returns up to n records, newest first. n must be positive.
	Recent(ctx context.Context, n int) ([]V, error)
	// Delete removes id. Unknown ids are ignored.
	Delete(ctx context.Context, id string)
	// Count returns the number of records held.
	Count(ctx context.Context) int
}

type entry[V any] struct {
	id    string
	value V
}

// MemoryStore is a bounded Store. When full, inserting a new id evicts the
// oldest inserted record; replacing an existing id keeps its position.
type MemoryStore[V any] struct {
	mu       sync.RWMutex
	capacity int
	index    map[string]*list.Element
	order    *list.List // front is newest
}

// NewMemoryStore creates an empty store.
func NewMemoryStore[V any](opts ...Option) *MemoryStore[V] {
	o := options{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[V]{
		capacity: o.capacity,
		index:    make(map[string]*list.Element, o.capacity),
		order:    list.New(),
	}
}

// Put inserts or replaces the record for id.
func (s *MemoryStore[V]) Put(ctx context.Context, id string, v V) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.index[id]; ok {
		el.Value.(*entry[V]).value = v
		return nil
	}
	s.index[id] = s.order.PushFront(&entry[V]{id: id, value: v})
	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(*entry[V]).id)
	}
	metrics.UpdateStoredRuns(s.order.Len())
	return nil
}

// Get returns the record for id.
func (s *MemoryStore[V]) Get(_ context.Context, id string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.index[id]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return el.Value.(*entry[V]).value, nil
}

// Recent returns up to n records, newest first.
func (s *MemoryStore[V]) Recent(_ context.Context, n int) ([]V, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]V, 0, min(n, s.order.Len()))
	for el := s.order.Front(); el != nil && len(out) < n; el = el.Next() {
		out = append(out, el.Value.(*entry[V]).value)
	}
	return out, nil
}

// Delete removes id. Unknown ids are ignored.
func (s *MemoryStore[V]) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.index[id]; ok {
		s.order.Remove(el)
		delete(s.index, id)
		metrics.UpdateStoredRuns(s.order.Len())
	}
}

// Count returns the number of records held.
func (s *MemoryStore[V]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
