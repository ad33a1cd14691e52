// Package gocache implements gleaner.ResultCache in process memory using
// patrickmn/go-cache.
package gocache

import (
	"context"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/patrickmn/go-cache"
)

// Ensure Store implements gleaner.ResultCache at compile time.
var _ gleaner.ResultCache = (*Store)(nil)

// Store keeps extracted content in memory until it expires.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a Store. Entries stored with a zero ttl expire after
// defaultTTL; expired entries are purged every cleanupInterval.
func NewStore(defaultTTL, cleanupInterval time.Duration) *Store {
	return &Store{cache: cache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the content stored under key, or nil on a miss.
func (s *Store) Get(_ context.Context, key string) (*gleaner.ExtractedContent, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	c, ok := v.(*gleaner.ExtractedContent)
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

// Set stores a copy of content under key.
func (s *Store) Set(_ context.Context, key string, content *gleaner.ExtractedContent, ttl time.Duration) error {
	if content == nil {
		return gleaner.Errorf(gleaner.EEXTRACTION, "cannot cache empty content for %q", key)
	}
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	s.cache.Set(key, content.Clone(), ttl)
	return nil
}

// Len returns the number of stored entries, including expired entries not
// yet purged.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
