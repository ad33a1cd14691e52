// Package cache memoizes platform extractions in a gleaner.ResultCache.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/gleaner"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Ensure Extractor implements gleaner.ContentExtractor at compile time.
var _ gleaner.ContentExtractor = (*Extractor)(nil)

// DefaultTTL is used when NewExtractor is given a non-positive ttl.
const DefaultTTL = time.Hour

// DefaultFlightTimeout bounds a shared extraction independently of the
// callers waiting on it.
const DefaultFlightTimeout = 60 * time.Second

// Extractor serves repeated extractions of the same content from a store.
//
// Concurrent misses for one key share a single call to the wrapped
// extractor. The shared call is detached from any one caller's
// cancellation; each caller stops waiting when its own context ends.
// Every caller receives its own copy with a fresh ID.
type Extractor struct {
	extractor gleaner.ContentExtractor
	store     gleaner.ResultCache
	ttl       time.Duration
	group     singleflight.Group

	// FlightTimeout bounds the shared extraction. Defaults to
	// DefaultFlightTimeout.
	FlightTimeout time.Duration
}

// NewExtractor wraps extractor with store.
func NewExtractor(extractor gleaner.ContentExtractor, store gleaner.ResultCache, ttl time.Duration) *Extractor {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Extractor{
		extractor: extractor,
		store:     store,
		ttl:       ttl,

		FlightTimeout: DefaultFlightTimeout,
	}
}

func (e *Extractor) Platform() gleaner.Platform {
	return e.extractor.Platform()
}

func (e *Extractor) Validate(rawURL string) gleaner.ParsedURL {
	return e.extractor.Validate(rawURL)
}

// Extract returns the cached content for rawURL and opts, extracting and
// storing it on a miss. Store failures degrade to uncached extraction.
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
	parsed := gleaner.Classify(rawURL)
	if !parsed.IsValid || parsed.ID == nil {
		return e.extractor.Extract(ctx, rawURL, opts)
	}
	key := Key(parsed, opts)

	if c, err := e.store.Get(ctx, key); err == nil && c != nil {
		return fresh(c, rawURL), nil
	}

	flight := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		timeout := e.FlightTimeout
		if timeout <= 0 {
			timeout = DefaultFlightTimeout
		}
		fctx, cancel := context.WithTimeout(flight, timeout)
		defer cancel()
		c, err := e.extractor.Extract(fctx, rawURL, opts)
		if err != nil || c == nil {
			return c, err
		}
		_ = e.store.Set(fctx, key, c, e.ttl)
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, gleaner.Errorf(gleaner.ETIMEOUT, "waiting for %s: %v", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		c, _ := res.Val.(*gleaner.ExtractedContent)
		if c == nil {
			return nil, nil
		}
		if !res.Shared {
			return c, nil
		}
		return fresh(c, rawURL), nil
	}
}

// fresh copies c for a new request.
func fresh(c *gleaner.ExtractedContent, rawURL string) *gleaner.ExtractedContent {
	out := c.Clone()
	out.ID = uuid.NewString()
	out.SourceURL = strings.TrimSpace(rawURL)
	return out
}

// Key returns the cache key for content identified by parsed and shaped by
// opts: platform:identifier:optionsHash. Options that do not change the
// output of a platform are left out of its hash.
func Key(parsed gleaner.ParsedURL, opts gleaner.Options) string {
	h := xxhash.New()
	switch parsed.Platform {
	case gleaner.PlatformYouTube:
		_, _ = h.WriteString("lang=" + strings.ToLower(strings.TrimSpace(opts.Language)))
		_, _ = h.WriteString(";ts=" + strconv.FormatBool(opts.IncludeTimestamps))
	case gleaner.PlatformNaver:
		format := strings.ToLower(strings.TrimSpace(opts.Format))
		if format == "" {
			format = gleaner.FormatPlain
		}
		_, _ = h.WriteString("format=" + format)
	}
	return fmt.Sprintf("%s:%s:%016x", parsed.Platform, parsed.ID.String(), h.Sum64())
}
