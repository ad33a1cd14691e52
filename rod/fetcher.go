// Package rod fetches JavaScript-rendered pages with headless Chrome.
package rod

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements gleaner.Fetcher at compile time.
var _ gleaner.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Only GET requests are supported. Fetcher is safe for concurrent use.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	closed    atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout   time.Duration
	userAgent string
	manager   []ManagerOption
}

// WithFetchTimeout bounds each page load.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *fetcherConfig) {
		c.userAgent = ua
	}
}

// WithManagerOptions configures the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(c *fetcherConfig) {
		c.manager = append(c.manager, opts...)
	}
}

// NewFetcher starts a browser. Close must be called when the Fetcher is no
// longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.manager...)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		manager:   manager,
		timeout:   cfg.timeout,
		userAgent: cfg.userAgent,
	}, nil
}

// Fetch navigates to req.URL and returns the rendered HTML. Request headers
// are sent with every request the page makes.
func (f *Fetcher) Fetch(ctx context.Context, req *gleaner.Request) (*gleaner.Response, error) {
	if f.closed.Load() {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "browser fetcher is closed")
	}
	if req.Method != "" && req.Method != http.MethodGet {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "browser fetcher cannot send %s requests", req.Method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser := f.manager.Browser()
	if browser == nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "browser fetcher is closed")
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()
	defer f.manager.PageDone()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, fmt.Errorf("setting user agent: %w", err)
		}
	}
	if len(req.Header) > 0 {
		dict := make([]string, 0, 2*len(req.Header))
		for k, v := range req.Header {
			dict = append(dict, k, v)
		}
		cleanup, err := page.SetExtraHeaders(dict)
		if err != nil {
			return nil, fmt.Errorf("setting headers: %w", err)
		}
		defer cleanup()
	}

	if err := page.Navigate(req.URL); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	finalURL := req.URL
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &gleaner.Response{StatusCode: http.StatusOK, URL: finalURL, Body: []byte(html)}, nil
}

// LauncherPID returns the process ID of the current browser.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}
