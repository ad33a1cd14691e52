// Package http provides an HTTP-based implementation of gleaner.Fetcher
// with browser-like headers, per-request timeouts and per-host rate limits.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/gleaner"
)

// DefaultFetchTimeout is the default timeout for a single HTTP request.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodySize is the largest response body accepted (10MB).
const DefaultMaxBodySize = int64(10 * 1024 * 1024)

// UserAgent is sent with every request; some sites serve bots a different page.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Ensure Fetcher implements gleaner.Fetcher at compile time.
var _ gleaner.Fetcher = (*Fetcher)(nil)

// Fetcher performs HTTP requests and reports failures as gleaner errors.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	limiter     *HostLimiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for each HTTP request.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodySize sets the maximum accepted response body size.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithHostLimiter throttles requests per host.
func WithHostLimiter(l *HostLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithHTTPClient replaces the underlying client. The fetcher works on a copy
// carrying the fetcher timeout, so c itself is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	client := &http.Client{}
	if f.client != nil {
		*client = *f.client
	}
	client.Timeout = f.timeout
	f.client = client

	return f
}

// Fetch performs req and returns the body of a 2xx response.
func (f *Fetcher) Fetch(ctx context.Context, req *gleaner.Request) (*gleaner.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EINVALIDURL, "build request: %v", err)
	}
	httpReq.Header.Set("User-Agent", UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, httpReq.URL.Host); err != nil {
			return nil, gleaner.Errorf(gleaner.ETIMEOUT, "rate limit wait: %v", err)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, gleaner.Errorf(gleaner.StatusErrorCode(resp.StatusCode), "HTTP %d for %s", resp.StatusCode, req.URL)
	}

	if resp.ContentLength > f.maxBodySize {
		return nil, gleaner.Errorf(gleaner.ETOOLARGE, "response of %d bytes exceeds %d", resp.ContentLength, f.maxBodySize)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, TransportError(err)
	}
	if int64(len(data)) > f.maxBodySize {
		return nil, gleaner.Errorf(gleaner.ETOOLARGE, "response body exceeds %d bytes", f.maxBodySize)
	}

	return &gleaner.Response{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Body:       data,
	}, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// TransportError classifies a transport failure. Deadlines, cancellations
// and network timeouts are ETIMEOUT; everything else is ENETWORK.
func TransportError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *gleaner.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return gleaner.Errorf(gleaner.ETIMEOUT, "%v", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return gleaner.Errorf(gleaner.ETIMEOUT, "%v", err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return gleaner.Errorf(gleaner.ENETWORK, "%s %s: %v", urlErr.Op, urlErr.URL, urlErr.Err)
	}

	return gleaner.Errorf(gleaner.ENETWORK, "%s", fmt.Sprint(err))
}
