package pushlog

import (
	"context"
	"sync"
)

// DefaultCapacity bounds the in-memory log.
const DefaultCapacity = 1024

// Memory keeps the most recent entries in a ring buffer.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[len(m.entries)-m.capacity:]
	}
	return nil
}

// Recent returns up to n entries, newest last.
func (m *Memory) Recent(n int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}
