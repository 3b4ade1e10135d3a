package checkpoint

import (
	"context"
	"sync"
)

// Memory is a process-local checkpoint store, used when Redis is not
// reachable. Offsets are lost when the process exits.
type Memory struct {
	mu      sync.Mutex
	offsets map[string]int64
}

func NewMemory() *Memory {
	return &Memory{offsets: make(map[string]int64)}
}

func (m *Memory) Get(_ context.Context, file string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[file], nil
}

func (m *Memory) Set(_ context.Context, file string, offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[file] = offset
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.offsets)
	return nil
}
