// Package trafilatura implements gleaner.MainContentExtractor with
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/gleaner"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements gleaner.MainContentExtractor at compile time.
var _ gleaner.MainContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to find the main content of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Name returns "trafilatura".
func (e *Extractor) Name() string {
	return "trafilatura"
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*gleaner.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "trafilatura: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, gleaner.Errorf(gleaner.EEXTRACTION, "rendering content: %v", err)
		}
	}

	return &gleaner.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
		Text:        strings.TrimSpace(result.ContentText),
		Author:      result.Metadata.Author,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
