package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/bloom"
	"github.com/fwojciec/gleaner/cache"
	"github.com/fwojciec/gleaner/gocache"
	"github.com/fwojciec/gleaner/goquery"
	"github.com/fwojciec/gleaner/htmltomarkdown"
	ghttp "github.com/fwojciec/gleaner/http"
	"github.com/fwojciec/gleaner/naver"
	"github.com/fwojciec/gleaner/readability"
	"github.com/fwojciec/gleaner/rod"
	gslog "github.com/fwojciec/gleaner/slog"
	"github.com/fwojciec/gleaner/sqlite"
	"github.com/fwojciec/gleaner/trafilatura"
	"github.com/fwojciec/gleaner/youtube"
)

// Sizing of the Bloom filter in front of a SQLite result store.
const (
	bloomCapacity = 100_000
	bloomFPRate   = 0.01
)

// memoryCleanupInterval is how often expired in-memory results are evicted.
const memoryCleanupInterval = 10 * time.Minute

// wire builds the extraction service described by cfg. Resources it opens
// are released by Close.
func (m *Main) wire(ctx context.Context, cfg Config, logger *slog.Logger) (gleaner.ExtractionService, error) {
	fallback, err := newFallback(cfg.Naver.Fallback)
	if err != nil {
		return nil, err
	}

	opts := []ghttp.Option{
		ghttp.WithHostLimiter(ghttp.NewHostLimiter(cfg.HTTP.RatePerHost, cfg.HTTP.Burst)),
	}
	if cfg.HTTP.Timeout > 0 {
		opts = append(opts, ghttp.WithTimeout(cfg.HTTP.Timeout))
	}
	fetcher := gslog.NewLoggingFetcher(ghttp.NewFetcher(opts...), logger)
	m.closers = append(m.closers, fetcher.Close)

	ytConfig := youtube.Config{
		APIKey:   cfg.YouTube.APIKey,
		Language: cfg.YouTube.Language,
	}
	if ytConfig.APIKey == "" {
		logger.WarnContext(ctx, "youtube data api key not set, caption tracks are listed from the watch page only")
	}
	if cfg.Browser {
		browser, err := rod.NewFetcher(rod.WithUserAgent(ghttp.UserAgent))
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		pages := gslog.NewLoggingFetcher(browser, logger)
		m.closers = append(m.closers, pages.Close)
		ytConfig.PageFetcher = pages
	}

	store, err := m.openStore(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	extractors := []gleaner.ContentExtractor{
		youtube.NewExtractor(fetcher, ytConfig),
		naver.NewExtractor(fetcher, goquery.NewParser(), naver.Config{
			Timeout:   cfg.Naver.Timeout,
			Converter: htmltomarkdown.NewConverter(),
			Fallback:  fallback,
		}),
	}
	for i, e := range extractors {
		if store != nil {
			e = cache.NewExtractor(e, store, cfg.Cache.TTL)
		}
		extractors[i] = gslog.NewLoggingExtractor(e, logger)
	}

	return gslog.NewLoggingService(gleaner.NewService(extractors...), logger), nil
}

func newFallback(name string) (gleaner.MainContentExtractor, error) {
	switch name {
	case "", "trafilatura":
		return trafilatura.NewExtractor(), nil
	case "readability":
		return readability.NewExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown naver fallback %q (want trafilatura or readability)", name)
	}
}

// openStore returns the result store named by cfg.Store, or nil when
// caching is disabled.
func (m *Main) openStore(ctx context.Context, cfg CacheConfig, logger *slog.Logger) (gleaner.ResultCache, error) {
	switch cfg.Store {
	case "none", "off":
		return nil, nil
	case "", "memory":
		ttl := cfg.TTL
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		return gslog.NewLoggingCache(gocache.NewStore(ttl, memoryCleanupInterval), logger), nil
	}

	db := sqlite.NewDB(cfg.Store)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("failed to open result cache at %q: %w", cfg.Store, err)
	}
	m.closers = append(m.closers, db.Close)

	store := sqlite.NewResultStore(db, bloom.NewFilter(bloomCapacity, bloomFPRate), cfg.TTL)
	purged, err := store.Purge(ctx)
	if err != nil {
		return nil, fmt.Errorf("purging result cache: %w", err)
	}
	warmed, err := store.WarmFilter(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading result cache keys: %w", err)
	}
	logger.DebugContext(ctx, "result cache opened", "path", cfg.Store, "keys", warmed, "purged", purged)

	return gslog.NewLoggingCache(store, logger), nil
}
