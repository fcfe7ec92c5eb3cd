package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/consistencyguard/internal/config"
)

type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderNone      Provider = "none"
)

// SelectProvider picks the reasoning provider from the configured
// credentials in fixed priority order.
func SelectProvider(cfg config.ReasoningConfig) Provider {
	switch {
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	case cfg.AnthropicAPIKey != "":
		return ProviderAnthropic
	case cfg.OpenAIAPIKey != "":
		return ProviderOpenAI
	default:
		return ProviderNone
	}
}

// NewReasoningClient builds the client for the selected provider. A nil client
// with ProviderNone means no credential is configured.
func NewReasoningClient(ctx context.Context, cfg config.ReasoningConfig) (LLMClient, Provider, error) {
	opts := GenerationOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	provider := SelectProvider(cfg)
	switch provider {
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "", opts)
		if err != nil {
			return nil, provider, err
		}
		return c, provider, nil

	case ProviderAnthropic:
		return NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, "", opts), provider, nil

	case ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, "", cfg.BaseURL, opts), provider, nil

	default:
		return nil, ProviderNone, nil
	}
}

// NewEmbedderClient builds a remote embedding client. The local ONNX model is
// handled by the embedding package directly.
func NewEmbedderClient(ctx context.Context, cfg config.EmbeddingConfig) (EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, "", cfg.Model, cfg.BaseURL, GenerationOptions{}), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, "", cfg.Model, GenerationOptions{})

	case "ollama":
		// Ollama speaks the OpenAI embeddings API under /v1.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		model := cfg.Model
		if model == "" {
			model = "all-minilm"
		}
		return NewOpenAIClient(apiKey, "", model, baseURL, GenerationOptions{}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
