// Package embedding turns text into fixed-length vectors and provides the
// vector math shared by the categorizer and the vector index.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/config"
	"github.com/agenthands/consistencyguard/internal/llm"
)

// Provider encodes text into a vector. Implementations must be deterministic
// for identical input and return vectors of one fixed dimensionality.
type Provider interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// ClientProvider adapts a remote llm.EmbedderClient.
type ClientProvider struct {
	Client llm.EmbedderClient
}

func (p *ClientProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.Client.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("remote embed failed: %w", err)
	}
	return vec, nil
}

// NewProvider builds the configured provider wrapped in a CachedProvider.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (*CachedProvider, error) {
	var base Provider
	switch strings.ToLower(cfg.Provider) {
	case "onnx", "":
		p, err := NewONNXProvider(cfg)
		if err != nil {
			return nil, err
		}
		base = p
	default:
		client, err := llm.NewEmbedderClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = &ClientProvider{Client: client}
	}
	if logger != nil {
		logger.Info("Embedding provider ready", zap.String("provider", cfg.Provider))
	}
	return NewCachedProvider(base), nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|). Vectors of different length or
// with zero magnitude yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineDistance is 1 - CosineSimilarity, the metric of the vector index.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Mean averages vectors element-wise. All vectors must share a length.
func Mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("mean of zero vectors")
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vectors))
	for j := range sum {
		out[j] = float32(sum[j] / n)
	}
	return out, nil
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

func (p *ClientProvider) Close() error {
	if closer, ok := p.Client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
