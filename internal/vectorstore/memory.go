package vectorstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps points in a map. Data is lost on exit.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	entries map[string]entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) EnsureCollection(_ context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim != 0 && m.dim != dim {
		return fmt.Errorf("%w: collection has %d, want %d", ErrDimensionMismatch, m.dim, dim)
	}
	m.dim = dim
	return nil
}

func (m *Memory) Recreate(_ context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dim = dim
	m.entries = make(map[string]entry)
	return nil
}

func (m *Memory) Upsert(_ context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim == 0 {
		return ErrNoCollection
	}
	if err := checkDims(points, m.dim); err != nil {
		return err
	}
	for _, p := range points {
		m.entries[p.ID] = entry{vector: p.Vector, payload: clonePayload(p.Payload)}
	}
	return nil
}

func (m *Memory) Search(_ context.Context, vector []float32, limit int, source string) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bruteForce(m.entries, vector, limit, source), nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Close() error { return nil }
