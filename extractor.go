package gleaner

import "context"

// ContentExtractor is a platform-specific extraction adapter.
type ContentExtractor interface {
	// Platform returns the platform this extractor serves.
	Platform() Platform

	// Validate classifies rawURL without network access.
	Validate(rawURL string) ParsedURL

	// Extract fetches and normalizes the content behind rawURL.
	// Returned errors are *Error values with a code from the closed set.
	Extract(ctx context.Context, rawURL string, opts Options) (*ExtractedContent, error)
}

// ExtractResult holds the main content found by a MainContentExtractor.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string

	// Text is the plain-text rendition of the main content.
	Text string

	// Author is the byline, if one was found.
	Author string
}

// MainContentExtractor finds the main content of arbitrary HTML pages.
// It backs up platform parsers when their known containers are missing.
type MainContentExtractor interface {
	// Name identifies the extractor in ExtractionMethod values.
	Name() string

	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}
