package gleaner

import "time"

// ParsedDocument is the plain-text view of an HTML page.
// Content never contains markup; whitespace is normalized so that no run of
// spaces exceeds one and no run of newlines exceeds two.
type ParsedDocument struct {
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Metadata       DocumentMetadata `json:"metadata"`
	Images         []Image          `json:"images,omitempty"`
	StructuredData []map[string]any `json:"structuredData,omitempty"`

	// ContentHTML is the cleaned HTML of the selected content container.
	// It is empty when no container matched and the whole document was used.
	ContentHTML string `json:"-"`

	// Container is the selector that located the main content, or empty
	// when the whole document was used.
	Container string `json:"-"`
}

// DocumentMetadata holds page-level metadata. Fields are empty when absent.
type DocumentMetadata struct {
	Author      string            `json:"author,omitempty"`
	PublishDate *time.Time        `json:"publishDate,omitempty"`
	Description string            `json:"description,omitempty"`
	SiteName    string            `json:"siteName,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Image is an image referenced by the main content.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// ParseOptions configures DocumentParser.Parse.
// Use DefaultParseOptions to get RemoveAds and RemoveNavigation enabled.
type ParseOptions struct {
	RemoveAds          bool
	RemoveNavigation   bool
	PreserveFormatting bool

	// Rules maps a rule name to a CSS selector of elements to remove.
	// Nil selects the parser's default rule set.
	Rules map[string]string

	// ContentSelectors are tried in order before the generic containers.
	ContentSelectors []string

	// TitleSelectors are tried after <title> and <h1>.
	TitleSelectors []string
}

// DefaultParseOptions returns the default parse options.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		RemoveAds:        true,
		RemoveNavigation: true,
	}
}

// DocumentParser turns raw HTML into a ParsedDocument.
type DocumentParser interface {
	// Parse never fails: empty or malformed input yields an empty document.
	Parse(html string, opts ParseOptions) *ParsedDocument
}
