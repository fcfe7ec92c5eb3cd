package categorizer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/agenthands/consistencyguard/internal/embedding"
)

// CentroidCache computes the curated centroids once and serves them for the
// lifetime of the cache. Concurrent first callers share a single computation;
// a failed computation is not cached.
type CentroidCache struct {
	set      *PrototypeSet
	provider embedding.Provider

	group     singleflight.Group
	mu        sync.RWMutex
	centroids map[string][]float32
}

func NewCentroidCache(set *PrototypeSet, provider embedding.Provider) *CentroidCache {
	return &CentroidCache{set: set, provider: provider}
}

func (c *CentroidCache) Set() *PrototypeSet {
	return c.set
}

// Centroids returns category name -> mean exemplar embedding.
func (c *CentroidCache) Centroids(ctx context.Context) (map[string][]float32, error) {
	c.mu.RLock()
	centroids := c.centroids
	c.mu.RUnlock()
	if centroids != nil {
		return centroids, nil
	}

	v, err, _ := c.group.Do("centroids", func() (interface{}, error) {
		c.mu.RLock()
		done := c.centroids
		c.mu.RUnlock()
		if done != nil {
			return done, nil
		}

		computed, err := c.compute(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.centroids = computed
		c.mu.Unlock()
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string][]float32), nil
}

func (c *CentroidCache) compute(ctx context.Context) (map[string][]float32, error) {
	out := make(map[string][]float32, len(c.set.Categories))
	for _, cat := range c.set.Categories {
		vectors := make([][]float32, 0, len(cat.Sentences))
		for _, sentence := range cat.Sentences {
			vec, err := c.provider.Encode(ctx, sentence)
			if err != nil {
				return nil, fmt.Errorf("embed prototype for %q: %w", cat.Name, err)
			}
			vectors = append(vectors, vec)
		}
		centroid, err := embedding.Mean(vectors)
		if err != nil {
			return nil, fmt.Errorf("centroid for %q: %w", cat.Name, err)
		}
		out[cat.Name] = centroid
	}
	return out, nil
}
