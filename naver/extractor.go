// Package naver extracts article text from Naver blog posts.
package naver

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/goquery"
	"github.com/google/uuid"
)

// Ensure Extractor implements gleaner.ContentExtractor at compile time.
var _ gleaner.ContentExtractor = (*Extractor)(nil)

// MethodHTML is the extraction method when a Naver editor container held
// the post body. Fallback extractions record "naver-<extractor name>".
const MethodHTML = "naver-html"

// Defaults for Config.
const (
	DefaultBaseURL        = "https://blog.naver.com"
	DefaultTimeout        = 10 * time.Second
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Config configures an Extractor. Zero fields take the defaults above.
type Config struct {
	BaseURL string

	// Timeout bounds the post page fetch.
	Timeout time.Duration

	AcceptLanguage string

	// Converter renders the post body as Markdown. Without it Markdown
	// output falls back to paragraph breaks.
	Converter gleaner.Converter

	// Fallback finds the main content when no Naver editor container is
	// present in the page.
	Fallback gleaner.MainContentExtractor
}

// Extractor fetches Naver blog posts and extracts their text.
type Extractor struct {
	fetcher gleaner.Fetcher
	parser  gleaner.DocumentParser
	config  Config

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewExtractor creates an Extractor fetching through fetcher and parsing
// with parser.
func NewExtractor(fetcher gleaner.Fetcher, parser gleaner.DocumentParser, config Config) *Extractor {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = DefaultAcceptLanguage
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Extractor{
		fetcher: fetcher,
		parser:  parser,
		config:  config,
		Now:     time.Now,
	}
}

// Platform returns gleaner.PlatformNaver.
func (e *Extractor) Platform() gleaner.Platform {
	return gleaner.PlatformNaver
}

// Validate classifies rawURL.
func (e *Extractor) Validate(rawURL string) gleaner.ParsedURL {
	return gleaner.Classify(rawURL)
}

// ParseOptions returns the parser options used for Naver post pages.
func ParseOptions() gleaner.ParseOptions {
	return gleaner.ParseOptions{
		RemoveAds:          true,
		RemoveNavigation:   true,
		PreserveFormatting: true,
		Rules:              goquery.NaverRules(),
		ContentSelectors:   goquery.NaverContentSelectors,
		TitleSelectors:     goquery.NaverTitleSelectors,
	}
}

// Extract fetches the post behind rawURL and returns its cleaned text.
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
	parsed := gleaner.Classify(rawURL)
	if parsed.Platform != gleaner.PlatformNaver || !parsed.IsValid {
		return nil, gleaner.Errorf(gleaner.EINVALIDURL, "no Naver blog post ID in %q", rawURL)
	}
	blogID, postID := parsed.ID.BlogID, parsed.ID.PostID

	page, err := e.fetchPost(ctx, blogID, postID)
	if err != nil {
		return nil, err
	}
	if IsUnavailable(page) {
		return nil, gleaner.Errorf(gleaner.ENOTFOUND, "post %s/%s is private, deleted or missing", blogID, postID)
	}

	doc := e.parser.Parse(page, ParseOptions())

	method := MethodHTML
	title := CleanTitle(doc.Title)
	author := doc.Metadata.Author
	text, bodyHTML := doc.Content, doc.ContentHTML

	if !slices.Contains(goquery.NaverContentSelectors, doc.Container) && e.config.Fallback != nil {
		if res, err := e.config.Fallback.Extract(page); err == nil && strings.TrimSpace(res.Text) != "" {
			method = "naver-" + e.config.Fallback.Name()
			text, bodyHTML = res.Text, res.ContentHTML
			if title == "" {
				title = CleanTitle(res.Title)
			}
			if author == "" {
				author = res.Author
			}
		}
	}

	text = Clean(text)
	if text == "" {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "post %s/%s has no extractable text", blogID, postID)
	}
	if opts.Format == gleaner.FormatMarkdown {
		text = e.markdown(text, bodyHTML)
	}

	content := &gleaner.ExtractedContent{
		ID:         uuid.NewString(),
		SourceURL:  strings.TrimSpace(rawURL),
		SourceType: gleaner.PlatformNaver,
		Title:      title,
		Language:   "ko",
		Timestamp:  e.Now().UTC(),
		Metadata: gleaner.ContentMetadata{
			Naver: &gleaner.NaverMetadata{
				BlogID:      blogID,
				PostID:      postID,
				Author:      author,
				PublishDate: doc.Metadata.PublishDate,
			},
			ExtractionMethod: method,
		},
	}
	content.SetContent(text)
	return content, nil
}

func (e *Extractor) fetchPost(ctx context.Context, blogID, postID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("blogId", blogID)
	q.Set("logNo", postID)

	resp, err := e.fetcher.Fetch(ctx, &gleaner.Request{
		URL: e.config.BaseURL + "/PostView.naver?" + q.Encode(),
		Header: map[string]string{
			"Accept-Language": e.config.AcceptLanguage,
			"Referer":         e.config.BaseURL + "/" + blogID,
		},
	})
	if err != nil {
		return "", gleaner.FetchError("fetch post", err)
	}
	return string(resp.Body), nil
}

// markdown converts the post body HTML when a converter is configured and
// falls back to paragraph breaks over the plain text.
func (e *Extractor) markdown(text, bodyHTML string) string {
	if e.config.Converter != nil && strings.TrimSpace(bodyHTML) != "" {
		if md, err := e.config.Converter.Convert(bodyHTML); err == nil {
			if md = clean(md, false); strings.TrimSpace(md) != "" {
				return md
			}
		}
	}
	return Paragraphs(text)
}
