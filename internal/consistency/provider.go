package consistency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/consistencyguard/internal/llm"
)

type FailureReason int

const (
	ReasonTransport FailureReason = iota
	ReasonTimeout
	ReasonEmpty
	ReasonMalformed
)

func (r FailureReason) String() string {
	switch r {
	case ReasonTransport:
		return "transport"
	case ReasonTimeout:
		return "timeout"
	case ReasonEmpty:
		return "empty response"
	case ReasonMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

// ProviderError is the typed failure of a reasoning provider.
type ProviderError struct {
	Provider string
	Reason   FailureReason
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ReasoningProvider judges one pair. Exactly one provider backs an Oracle.
type ReasoningProvider interface {
	Name() string
	Judge(ctx context.Context, pair Pair) (Verdict, error)
}

// LLMProvider judges pairs with a chat model.
type LLMProvider struct {
	name    string
	client  llm.LLMClient
	prompts Prompts
}

func NewLLMProvider(name string, client llm.LLMClient, prompts Prompts) *LLMProvider {
	return &LLMProvider{name: name, client: client, prompts: prompts}
}

func (p *LLMProvider) Name() string { return p.name }

func (p *LLMProvider) Judge(ctx context.Context, pair Pair) (Verdict, error) {
	reply, err := p.client.Generate(ctx, p.prompts.System, p.prompts.UserPrompt(pair))
	if err != nil {
		reason := ReasonTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return Verdict{}, &ProviderError{Provider: p.name, Reason: reason, Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return Verdict{}, &ProviderError{Provider: p.name, Reason: ReasonEmpty}
	}

	v, err := ParseVerdict(reply)
	if err != nil {
		return Verdict{}, &ProviderError{Provider: p.name, Reason: ReasonMalformed, Err: err}
	}
	return v, nil
}

// NullProvider is used when no reasoning credential is configured.
type NullProvider struct{}

func (NullProvider) Name() string { return string(llm.ProviderNone) }

func (NullProvider) Judge(ctx context.Context, pair Pair) (Verdict, error) {
	return Verdict{IsConsistent: true, Explanation: NoProviderExplanation}, nil
}
