package state

import (
	"context"
	"sync"
)

// Memory is the in-memory Store. It keeps the initial implementation
// lightweight and testable; the bbolt store layers durability on the same
// staged-copy commit discipline.
type Memory struct {
	mu      sync.RWMutex
	current *Registry
}

// NewMemory creates an in-memory store seeded with the given initial state.
func NewMemory(initial *Registry) *Memory {
	return &Memory{current: initial}
}

func (m *Memory) View(ctx context.Context, fn func(*Registry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.current)
}

func (m *Memory) Update(ctx context.Context, fn func(*Registry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	staged := m.current.Clone()
	if err := fn(staged); err != nil {
		return err
	}
	m.current = staged
	return nil
}

func (m *Memory) Close() error { return nil }
