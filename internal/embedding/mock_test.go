package embedding

import (
	"context"
	"sync"
)

type MockProvider struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Calls   map[string]int
	Err     error
	closed  bool
}

func (m *MockProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[text]++
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (m *MockProvider) Close() error {
	m.closed = true
	return nil
}

type MockEmbedderClient struct {
	Vector []float32
	Err    error
}

func (m *MockEmbedderClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
