// Package htmltomarkdown renders sanitized HTML fragments as Markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/gleaner"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Converter implements gleaner.Converter at compile time.
var _ gleaner.Converter = (*Converter)(nil)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Converter sanitizes HTML with bluemonday and converts it to Markdown with
// html-to-markdown. Scripts, event handlers and unsafe URLs never reach the
// converter.
type Converter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// NewConverter creates a new Converter using the bluemonday UGC policy.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{
		policy: bluemonday.UGCPolicy(),
		conv:   conv,
	}
}

// Convert sanitizes html and transforms it into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", gleaner.Errorf(gleaner.EEXTRACTION, "empty HTML input")
	}

	clean := c.policy.Sanitize(html)

	result, err := c.conv.ConvertString(clean)
	if err != nil {
		return "", gleaner.Errorf(gleaner.EEXTRACTION, "converting HTML to markdown: %v", err)
	}

	result = strings.TrimSpace(blankLines.ReplaceAllString(result, "\n\n"))
	if result == "" {
		return "", gleaner.Errorf(gleaner.EEXTRACTION, "HTML has no convertible content")
	}
	return result, nil
}
