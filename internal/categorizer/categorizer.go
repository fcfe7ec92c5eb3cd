// Package categorizer assigns a piece of text to the closest category by
// cosine similarity between its embedding and each category's prototype.
package categorizer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/embedding"
	"github.com/agenthands/consistencyguard/internal/logging"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClassification  = errors.New("classification failed")
)

type Categorizer struct {
	provider embedding.Provider
	cache    *CentroidCache
	logger   *zap.Logger
}

// New builds a Categorizer. The cache should be built on the same provider so
// centroids and query vectors share one embedding space.
func New(provider embedding.Provider, cache *CentroidCache, logger *zap.Logger) *Categorizer {
	logger = logging.OrNop(logger)
	return &Categorizer{provider: provider, cache: cache, logger: logger}
}

// Categories returns the full curated candidate set in its canonical order.
func (c *Categorizer) Categories() []string {
	return c.cache.Set().Names()
}

// Categorize returns the candidate whose prototype is most similar to text.
//
// When allowed is non-empty it is the candidate set, in the given order;
// otherwise every curated category is a candidate. Ties go to the earliest
// candidate, so callers that care about tie-breaks must order allowed.
func (c *Categorizer) Categorize(ctx context.Context, text string, allowed []string) (string, error) {
	candidates := allowed
	if len(candidates) == 0 {
		candidates = c.cache.Set().Names()
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no candidate categories", ErrInvalidArgument)
	}

	vec, err := c.provider.Encode(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: embed text: %w", ErrClassification, err)
	}

	prototypes, err := c.Prototypes(ctx, candidates)
	if err != nil {
		return "", err
	}

	best := candidates[0]
	bestSim := -1.0
	for _, p := range prototypes {
		pv, err := p.Vector(ctx, c.provider)
		if err != nil {
			return "", fmt.Errorf("%w: embed category %q: %w", ErrClassification, p.Category, err)
		}
		sim := embedding.CosineSimilarity(vec, pv)
		if sim > bestSim {
			bestSim = sim
			best = p.Category
		}
	}

	c.logger.Debug("Categorized text",
		zap.String("category", best),
		zap.Float64("similarity", bestSim),
		zap.Int("candidates", len(candidates)))
	return best, nil
}

// Prototypes resolves each candidate to a curated centroid when one exists,
// otherwise to a name-derived prototype.
func (c *Categorizer) Prototypes(ctx context.Context, candidates []string) ([]Prototype, error) {
	centroids, err := c.cache.Centroids(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	out := make([]Prototype, len(candidates))
	for i, name := range candidates {
		if centroid, ok := centroids[name]; ok {
			out[i] = CuratedPrototype(name, centroid)
		} else {
			out[i] = NameDerivedPrototype(name)
		}
	}
	return out, nil
}
