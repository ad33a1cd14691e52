package gleaner

import (
	"time"
	"unicode/utf8"
)

// Output formats for article content.
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
)

// Options tunes a single extraction. Zero values select defaults.
type Options struct {
	// Language is the preferred caption language (YouTube only).
	Language string `json:"language,omitempty" yaml:"language"`

	// IncludeTimestamps prefixes caption lines with [mm:ss] (YouTube only).
	IncludeTimestamps bool `json:"includeTimestamps,omitempty" yaml:"include_timestamps"`

	// Format is FormatPlain or FormatMarkdown (Naver only).
	Format string `json:"format,omitempty" yaml:"format"`

	// Timeout bounds the cumulative wall-clock time of the extraction.
	// It does not replace per-request timeouts.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout"`
}

// ExtractedContent is the normalized result of a successful extraction.
type ExtractedContent struct {
	ID         string          `json:"id"`
	SourceURL  string          `json:"sourceUrl"`
	SourceType Platform        `json:"sourceType"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Language   string          `json:"language,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Metadata   ContentMetadata `json:"metadata"`
}

// ContentMetadata carries source-specific details. Exactly one of YouTube
// and Naver is set, matching ExtractedContent.SourceType.
type ContentMetadata struct {
	YouTube *YouTubeMetadata `json:"youtube,omitempty"`
	Naver   *NaverMetadata   `json:"naver,omitempty"`

	ExtractionMethod string        `json:"extractionMethod"`
	ProcessingTime   time.Duration `json:"processingTime"`

	// ContentLength is the number of characters (runes) in Content.
	ContentLength int `json:"contentLength"`
}

// YouTubeMetadata describes a caption extraction.
type YouTubeMetadata struct {
	VideoID            string        `json:"videoId"`
	Duration           time.Duration `json:"duration"`
	AvailableLanguages []string      `json:"availableLanguages"`
	HasTimestamps      bool          `json:"hasTimestamps"`
}

// NaverMetadata describes a blog post extraction.
type NaverMetadata struct {
	BlogID      string     `json:"blogId"`
	PostID      string     `json:"postId"`
	Author      string     `json:"author,omitempty"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
}

// SetContent replaces Content and keeps ContentLength in sync.
func (c *ExtractedContent) SetContent(s string) {
	c.Content = s
	c.Metadata.ContentLength = utf8.RuneCountInString(s)
}

// Clone returns a deep copy of c.
func (c *ExtractedContent) Clone() *ExtractedContent {
	if c == nil {
		return nil
	}
	other := *c
	if c.Metadata.YouTube != nil {
		yt := *c.Metadata.YouTube
		yt.AvailableLanguages = append([]string(nil), yt.AvailableLanguages...)
		other.Metadata.YouTube = &yt
	}
	if c.Metadata.Naver != nil {
		nv := *c.Metadata.Naver
		if nv.PublishDate != nil {
			d := *nv.PublishDate
			nv.PublishDate = &d
		}
		other.Metadata.Naver = &nv
	}
	return &other
}

// Validate returns an error if the content violates its invariants.
func (c *ExtractedContent) Validate() error {
	if c.ID == "" {
		return Errorf(EEXTRACTION, "content ID required")
	}
	if c.SourceType != PlatformYouTube && c.SourceType != PlatformNaver {
		return Errorf(EEXTRACTION, "invalid source type %q", c.SourceType)
	}
	if c.Metadata.ContentLength != utf8.RuneCountInString(c.Content) {
		return Errorf(EEXTRACTION, "content length mismatch: %d != %d",
			c.Metadata.ContentLength, utf8.RuneCountInString(c.Content))
	}
	if c.Metadata.ProcessingTime < 0 {
		return Errorf(EEXTRACTION, "negative processing time")
	}
	return nil
}

// ExtractionResult is the envelope returned by Service.Extract.
// Exactly one of Data and Error is set.
type ExtractionResult struct {
	Success        bool              `json:"success"`
	Data           *ExtractedContent `json:"data,omitempty"`
	Error          *Error            `json:"error,omitempty"`
	ProcessingTime time.Duration     `json:"processingTime"`
	Timestamp      time.Time         `json:"timestamp"`
}

// NewSuccessResult wraps content in a successful result.
// A nil content is reported as a failure to keep the envelope well-formed.
func NewSuccessResult(content *ExtractedContent, elapsed time.Duration) ExtractionResult {
	if content == nil {
		return NewFailureResult(Errorf(EEXTRACTION, "extractor returned no content"), elapsed)
	}
	return ExtractionResult{
		Success:        true,
		Data:           content,
		ProcessingTime: elapsed,
		Timestamp:      time.Now().UTC(),
	}
}

// NewFailureResult wraps err in a failed result.
func NewFailureResult(err error, elapsed time.Duration) ExtractionResult {
	e := AsError(err)
	if e == nil {
		e = NewError(EEXTRACTION, "unknown failure")
	}
	return ExtractionResult{
		Success:        false,
		Error:          e,
		ProcessingTime: elapsed,
		Timestamp:      time.Now().UTC(),
	}
}
