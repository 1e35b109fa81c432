package breaker

import (
	"context"
	"sync"
	"time"
)

// circuit holds one backend's state behind its own lock, so updates for one
// backend never block attempts against another.
type circuit struct {
	mu sync.Mutex
	Circuit
}

// MemoryStore implements Store with process-local state. Circuits are created
// lazily on first reference and live for the process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	circuits map[string]*circuit

	now func() time.Time // injectable clock for tests
}

// NewMemoryStore creates an empty in-memory circuit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		circuits: make(map[string]*circuit),
		now:      time.Now,
	}
}

func (ms *MemoryStore) circuitFor(backend string) *circuit {
	ms.mu.RLock()
	c, ok := ms.circuits[backend]
	ms.mu.RUnlock()
	if ok {
		return c
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if c, ok = ms.circuits[backend]; ok {
		return c
	}
	c = &circuit{Circuit: Circuit{State: StateClosed}}
	ms.circuits[backend] = c
	return c
}

// Check implements Store.
func (ms *MemoryStore) Check(_ context.Context, backend string, resetTimeout time.Duration) (bool, error) {
	c := ms.circuitFor(backend)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State {
	case StateOpen:
		if ms.now().Sub(c.LastFailureAt) < resetTimeout {
			return false, nil
		}
		// Cool-down elapsed: move to half-open and hand out the probe.
		c.State = StateHalfOpen
		c.HalfOpenProbes = 1
		return true, nil
	case StateHalfOpen:
		if c.HalfOpenProbes > 0 {
			return false, nil
		}
		c.HalfOpenProbes = 1
		return true, nil
	default:
		return true, nil
	}
}

// RecordFailure implements Store.
func (ms *MemoryStore) RecordFailure(_ context.Context, backend string, threshold int) (Circuit, error) {
	c := ms.circuitFor(backend)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.FailureCount++
	c.LastFailureAt = ms.now()

	switch {
	case c.State == StateHalfOpen:
		// Failed probe reopens immediately.
		c.State = StateOpen
		c.HalfOpenProbes = 0
	case c.FailureCount >= threshold:
		c.State = StateOpen
	}

	return c.Circuit, nil
}

// RecordSuccess implements Store.
func (ms *MemoryStore) RecordSuccess(_ context.Context, backend string) error {
	c := ms.circuitFor(backend)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Circuit = Circuit{State: StateClosed}
	return nil
}

// Snapshot implements Store.
func (ms *MemoryStore) Snapshot(_ context.Context, backend string) (Circuit, error) {
	c := ms.circuitFor(backend)
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Circuit, nil
}
