package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/vectorindex"
)

type MockCategorizer struct {
	Categories  map[string]string
	Default     string
	Err         error
	LastAllowed []string
}

func (m *MockCategorizer) Categorize(ctx context.Context, text string, allowed []string) (string, error) {
	m.LastAllowed = allowed
	if m.Err != nil {
		return "", m.Err
	}
	if c, ok := m.Categories[text]; ok {
		return c, nil
	}
	return m.Default, nil
}

type MockEmbedder struct {
	Vectors map[string][]float32
	Err     error
}

func (m *MockEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

type MockOracle struct {
	Verdicts []consistency.Verdict
	Pairs    []consistency.Pair
}

func (m *MockOracle) Check(ctx context.Context, pair consistency.Pair) consistency.Verdict {
	m.Pairs = append(m.Pairs, pair)
	if len(m.Verdicts) == 0 {
		return consistency.Verdict{IsConsistent: true, Explanation: "fine"}
	}
	v := m.Verdicts[0]
	m.Verdicts = m.Verdicts[1:]
	return v
}

// FailingIndex wraps an index and fails selected operations.
type FailingIndex struct {
	vectorindex.Index
	UpsertErr error
	QueryErr  error
	DeleteErr error
}

func (f *FailingIndex) Upsert(ctx context.Context, e vectorindex.Entry) error {
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	return f.Index.Upsert(ctx, e)
}

func (f *FailingIndex) QueryNearest(ctx context.Context, vec []float32, k int, filter vectorindex.Filter) ([]vectorindex.Neighbor, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	return f.Index.QueryNearest(ctx, vec, k, filter)
}

func (f *FailingIndex) Delete(ctx context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.Index.Delete(ctx, id)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errBoom = errors.New("boom")
