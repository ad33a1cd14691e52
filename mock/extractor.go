package mock

import (
	"context"

	"github.com/fwojciec/gleaner"
)

var _ gleaner.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of gleaner.ContentExtractor.
type ContentExtractor struct {
	PlatformFn func() gleaner.Platform
	ValidateFn func(rawURL string) gleaner.ParsedURL
	ExtractFn  func(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error)
}

func (e *ContentExtractor) Platform() gleaner.Platform {
	return e.PlatformFn()
}

func (e *ContentExtractor) Validate(rawURL string) gleaner.ParsedURL {
	return e.ValidateFn(rawURL)
}

func (e *ContentExtractor) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
	return e.ExtractFn(ctx, rawURL, opts)
}

var _ gleaner.MainContentExtractor = (*MainContentExtractor)(nil)

// MainContentExtractor is a mock implementation of gleaner.MainContentExtractor.
type MainContentExtractor struct {
	NameFn    func() string
	ExtractFn func(html string) (*gleaner.ExtractResult, error)
}

func (e *MainContentExtractor) Name() string {
	return e.NameFn()
}

func (e *MainContentExtractor) Extract(html string) (*gleaner.ExtractResult, error) {
	return e.ExtractFn(html)
}
