package history

import (
	"context"
	"sync"

	"llmaniac/internal/domain"
)

// DefaultCapacity bounds the number of distinct conversation keys retained.
const DefaultCapacity = 4096

// Memory is the default Store: one turn per key, oldest keys evicted first
// once the capacity is reached.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	turns    map[string]domain.Turn
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		turns:    make(map[string]domain.Turn),
	}
}

func (m *Memory) Get(_ context.Context, key string) (domain.Turn, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turn, ok := m.turns[key]
	return turn, ok, nil
}

func (m *Memory) Put(_ context.Context, key string, turn domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.turns[key]; !ok {
		m.order = append(m.order, key)
		if len(m.order) > m.capacity {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.turns, oldest)
		}
	}
	m.turns[key] = turn
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
