package categorizer

import (
	"context"
	"strings"
	"sync"
)

// MockProvider returns fixed vectors per text and counts calls.
type MockProvider struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Default []float32
	Err     error
	Calls   map[string]int
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
	return m.Default, nil
}

func (m *MockProvider) CallCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[text]
}

// LexiconProvider is a toy semantic embedder: each dimension is a concept and
// a text scores one point per word that belongs to it. The last dimension is a
// constant bias so no text embeds to the zero vector.
type LexiconProvider struct {
	Concepts [][]string
}

func (l *LexiconProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(l.Concepts)+1)
	vec[len(l.Concepts)] = 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;!?'\"")
		for i, concept := range l.Concepts {
			for _, w := range concept {
				if word == w {
					vec[i]++
				}
			}
		}
	}
	return vec, nil
}
