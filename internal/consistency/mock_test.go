package consistency

import (
	"context"
	"time"
)

type MockLLM struct {
	Response   string
	Err        error
	Delay      time.Duration
	LastSystem string
	LastPrompt string
}

func (m *MockLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.LastSystem = system
	m.LastPrompt = prompt
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockProvider struct {
	Verdict Verdict
	Err     error
	Calls   int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Judge(ctx context.Context, pair Pair) (Verdict, error) {
	m.Calls++
	return m.Verdict, m.Err
}

// ClosingLLM is a client that owns a connection, like the Gemini client.
type ClosingLLM struct {
	MockLLM
	Closed   int
	CloseErr error
}

func (m *ClosingLLM) Close() error {
	m.Closed++
	return m.CloseErr
}
