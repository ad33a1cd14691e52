package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/gleaner"
)

// Ensure LoggingCache implements gleaner.ResultCache.
var _ gleaner.ResultCache = (*LoggingCache)(nil)

// LoggingCache wraps a ResultCache with debug logging of hits and misses.
type LoggingCache struct {
	next   gleaner.ResultCache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next gleaner.ResultCache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

func (c *LoggingCache) Get(ctx context.Context, key string) (content *gleaner.ExtractedContent, err error) {
	defer func(begin time.Time) {
		c.logger.DebugContext(ctx, "cache get",
			"key", key,
			"hit", content != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Get(ctx, key)
}

func (c *LoggingCache) Set(ctx context.Context, key string, content *gleaner.ExtractedContent, ttl time.Duration) (err error) {
	defer func(begin time.Time) {
		c.logger.DebugContext(ctx, "cache set",
			"key", key,
			"ttl", ttl,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Set(ctx, key, content, ttl)
}
