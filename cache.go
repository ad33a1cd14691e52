package gleaner

import (
	"context"
	"time"
)

// ResultCache stores extracted content by key.
//
// Implementations store immutable snapshots: callers may mutate what they
// pass to Set or receive from Get without affecting the cache.
type ResultCache interface {
	// Get returns the content for key. Returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*ExtractedContent, error)

	// Set stores content under key for ttl. A zero ttl uses the default.
	Set(ctx context.Context, key string, content *ExtractedContent, ttl time.Duration) error
}
