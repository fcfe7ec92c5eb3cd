package server

import (
	"context"

	"github.com/agenthands/consistencyguard/internal/consistency"
)

type MockCategorizer struct {
	Category    string
	Err         error
	LastAllowed []string
}

func (m *MockCategorizer) Categorize(ctx context.Context, text string, allowed []string) (string, error) {
	m.LastAllowed = allowed
	if m.Err != nil {
		return "", m.Err
	}
	if len(allowed) > 0 {
		return allowed[0], nil
	}
	return m.Category, nil
}

type MockEmbedder struct{}

func (MockEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 1}, nil
}

type MockOracle struct {
	Verdict consistency.Verdict
}

func (m *MockOracle) Check(ctx context.Context, pair consistency.Pair) consistency.Verdict {
	return m.Verdict
}
