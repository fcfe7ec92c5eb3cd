package vectorindex

import (
	"context"
	"sync"
)

// MemoryIndex is a brute-force in-process index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []Entry
	pos     map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{pos: make(map[string]int)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.Vector = append([]float32(nil), e.Vector...)
	if i, ok := m.pos[e.ID]; ok {
		m.entries[i] = e
		return nil
	}
	m.pos[e.ID] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryIndex) QueryNearest(ctx context.Context, vec []float32, k int, f Filter) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if f.match(e) {
			matched = append(matched, e)
		}
	}
	return rank(matched, vec, k), nil
}

func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.pos[id]
	if !ok {
		return nil
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.pos, id)
	for j := i; j < len(m.entries); j++ {
		m.pos[m.entries[j].ID] = j
	}
	return nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
