// Package readability implements gleaner.MainContentExtractor with
// go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/gleaner"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Ensure Extractor implements gleaner.MainContentExtractor at compile time.
var _ gleaner.MainContentExtractor = (*Extractor)(nil)

// Extractor wraps go-readability to find the main content of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Name returns "readability".
func (e *Extractor) Name() string {
	return "readability"
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*gleaner.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "empty HTML input")
	}

	// rawHTML is already decoded; parsing it here keeps go-readability from
	// guessing a charset for pages without a <meta charset>.
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "parsing HTML: %v", err)
	}

	article, err := readability.FromDocument(doc, nil)
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "readability: %v", err)
	}

	return &gleaner.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
		Text:        strings.TrimSpace(article.TextContent),
		Author:      article.Byline,
	}, nil
}
