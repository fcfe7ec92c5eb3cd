package embedding

import (
	"context"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// CachedProvider memoizes encodings keyed by NFKC-normalized text. The
// normalized form is what gets encoded, so equivalent inputs share a vector.
type CachedProvider struct {
	base Provider

	mu    sync.RWMutex
	cache map[string][]float32
}

func NewCachedProvider(base Provider) *CachedProvider {
	return &CachedProvider{base: base, cache: make(map[string][]float32)}
}

func (c *CachedProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	key := norm.NFKC.String(text)

	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec), nil
	}

	vec, err := c.base.Encode(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cloneVector(vec)
	c.mu.Unlock()
	return vec, nil
}

// Len reports how many distinct texts are cached.
func (c *CachedProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Close releases the wrapped provider when it holds resources.
func (c *CachedProvider) Close() error {
	if closer, ok := c.base.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
