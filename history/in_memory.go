package history

import (
	"sync"

	"github.com/hupe1980/agentrouter/core"
)

// DefaultCapacity is the number of records kept by NewInMemoryStore(0).
const DefaultCapacity = 1000

// InMemoryStore retains the most recent invocations in a ring buffer guarded
// by an RWMutex. Once capacity is reached the oldest record is evicted.
//
// Tasks and results are cloned on save so later mutation by the caller does
// not leak into stored records.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []core.Invocation // ring buffer
	next    int               // slot for the next write
	size    int
	index   map[string]int // id -> slot
}

// NewInMemoryStore returns an empty store holding at most capacity records
// (DefaultCapacity if capacity <= 0).
func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryStore{
		records: make([]core.Invocation, capacity),
		index:   make(map[string]int, capacity),
	}
}

// Capacity returns the maximum number of retained records.
func (s *InMemoryStore) Capacity() int { return len(s.records) }

// Len returns the number of retained records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Save stores inv, replacing an existing record with the same id in place.
func (s *InMemoryStore) Save(inv core.Invocation) error {
	inv = cloneInvocation(inv)

	s.mu.Lock()
	defer s.mu.Unlock()

	if slot, ok := s.index[inv.ID]; ok {
		s.records[slot] = inv
		return nil
	}

	if s.size == len(s.records) {
		delete(s.index, s.records[s.next].ID)
	} else {
		s.size++
	}

	s.records[s.next] = inv
	s.index[inv.ID] = s.next
	s.next = (s.next + 1) % len(s.records)

	return nil
}

// Get returns a copy of the record with the given id or ErrNotFound.
func (s *InMemoryStore) Get(id string) (core.Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.index[id]
	if !ok {
		return core.Invocation{}, ErrNotFound
	}

	return cloneInvocation(s.records[slot]), nil
}

// List returns up to limit records, most recent first. The slice is a
// snapshot and safe for caller mutation.
func (s *InMemoryStore) List(limit int) ([]core.Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.size
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]core.Invocation, 0, n)
	for i := 1; i <= n; i++ {
		slot := (s.next - i + len(s.records)) % len(s.records)
		out = append(out, cloneInvocation(s.records[slot]))
	}

	return out, nil
}

func cloneInvocation(inv core.Invocation) core.Invocation {
	if inv.Task != nil {
		inv.Task = inv.Task.Clone()
	}
	if inv.Result != nil {
		inv.Result = inv.Result.Clone()
	}
	return inv
}
