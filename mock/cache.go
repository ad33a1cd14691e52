package mock

import (
	"context"
	"time"

	"github.com/fwojciec/gleaner"
)

var _ gleaner.ResultCache = (*ResultCache)(nil)

// ResultCache is a mock implementation of gleaner.ResultCache.
type ResultCache struct {
	GetFn func(ctx context.Context, key string) (*gleaner.ExtractedContent, error)
	SetFn func(ctx context.Context, key string, content *gleaner.ExtractedContent, ttl time.Duration) error
}

func (c *ResultCache) Get(ctx context.Context, key string) (*gleaner.ExtractedContent, error) {
	return c.GetFn(ctx, key)
}

func (c *ResultCache) Set(ctx context.Context, key string, content *gleaner.ExtractedContent, ttl time.Duration) error {
	return c.SetFn(ctx, key, content, ttl)
}
