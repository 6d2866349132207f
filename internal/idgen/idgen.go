// Package idgen provides record identifiers derived from creation time.
package idgen

import (
	"sync"
	"time"
)

// Generator hands out record identifiers.
type Generator interface {
	Next() int64
}

// Monotonic returns millisecond timestamps, bumped past the previous value
// when two calls land in the same millisecond or the clock steps back.
// Successive results are strictly increasing.
type Monotonic struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewMonotonic creates a Monotonic generator reading the wall clock.
func NewMonotonic() *Monotonic {
	return NewMonotonicWithClock(time.Now)
}

// NewMonotonicWithClock creates a Monotonic generator reading now.
func NewMonotonicWithClock(now func() time.Time) *Monotonic {
	return &Monotonic{now: now}
}

// Next returns the next identifier.
func (m *Monotonic) Next() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.now().UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return id
}

// Observe makes later results exceed id. Stores call it with the largest
// identifier already persisted.
func (m *Monotonic) Observe(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id > m.last {
		m.last = id
	}
}

// Sequence is a deterministic counter, useful in tests.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

// NewSequence creates a Sequence whose first result is start.
func NewSequence(start int64) *Sequence {
	return &Sequence{next: start}
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	return id
}
