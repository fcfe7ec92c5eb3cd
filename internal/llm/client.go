package llm

import (
	"context"
)

// LLMClient is a text-completion boundary: a system instruction plus a user
// prompt in, free text out.
type LLMClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationOptions are the sampling settings shared by every provider.
// A nil Temperature leaves the provider's own default in place.
type GenerationOptions struct {
	Temperature *float32
	MaxTokens   int
}
