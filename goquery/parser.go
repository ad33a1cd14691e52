// Package goquery implements gleaner.DocumentParser on top of goquery:
// CSS-selector-driven cleaning and a streaming text walk over the DOM.
package goquery

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/gleaner"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Parser implements gleaner.DocumentParser at compile time.
var _ gleaner.DocumentParser = (*Parser)(nil)

// Parser converts HTML into a gleaner.ParsedDocument.
// Parser is stateless and safe for concurrent use.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	spaceRun    = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	anySpaceRun = regexp.MustCompile(`[\s\v\p{Zs}]+`)
	newlineRun  = regexp.MustCompile(`\n{3,}`)
	spacedBreak = regexp.MustCompile(` *\n *`)
	tagLike     = regexp.MustCompile(`<([/!?]?[A-Za-z])`)
	sentenceEnd = regexp.MustCompile(`([.!?。]|다\.) +`)
)

// Parse extracts title, text, metadata and images from rawHTML.
// Empty or malformed input yields an empty document; Parse never panics on
// input and runs in time linear in the size of the document.
func (p *Parser) Parse(rawHTML string, opts gleaner.ParseOptions) *gleaner.ParsedDocument {
	result := &gleaner.ParsedDocument{}
	if strings.TrimSpace(rawHTML) == "" {
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		// The tree builder refuses pathologically nested documents; their
		// text is still recovered from the token stream.
		result.Title, result.Content = tokenText(rawHTML, opts.PreserveFormatting)
		return result
	}

	// Title, metadata and structured data are read before cleaning so that
	// bylines in headers and JSON-LD scripts are still present.
	result.Title = extractTitle(doc, opts.TitleSelectors)
	result.Metadata = extractMetadata(doc)
	result.StructuredData = extractStructuredData(doc)

	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	removeByRules(doc, rules, opts)

	container, selector := findContainer(doc, opts.ContentSelectors)
	if selector != "" {
		result.Container = selector
		if inner, err := container.Html(); err == nil {
			result.ContentHTML = inner
		}
	}

	result.Content = Text(container, opts.PreserveFormatting)
	result.Images = extractImages(container)

	return result
}

// removeByRules removes every element matched by an enabled rule.
// Rules are applied in name order so that results are deterministic.
func removeByRules(doc *goquery.Document, rules map[string]string, opts gleaner.ParseOptions) {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch ruleGroup(name) {
		case GroupAds:
			if !opts.RemoveAds {
				continue
			}
		case GroupNavigation:
			if !opts.RemoveNavigation {
				continue
			}
		}
		doc.Find(rules[name]).Remove()
	}
}

// findContainer returns the first content container with text, trying the
// caller's selectors before the generic ones. It falls back to the body, or
// the whole document when there is no body.
func findContainer(doc *goquery.Document, selectors []string) (*goquery.Selection, string) {
	candidates := make([]string, 0, len(selectors)+len(genericContentSelectors))
	candidates = append(candidates, selectors...)
	candidates = append(candidates, genericContentSelectors...)

	for _, selector := range candidates {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if strings.TrimSpace(sel.Text()) != "" {
			return sel, selector
		}
	}

	if body := doc.Find("body"); body.Length() > 0 {
		return body, ""
	}
	return doc.Selection, ""
}

// extractTitle tries <title>, the first <h1>, then the given selectors.
func extractTitle(doc *goquery.Document, selectors []string) string {
	candidates := append([]string{"title", "h1"}, selectors...)
	for _, selector := range candidates {
		title := collapse(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}

var (
	authorSelectors = []string{
		`[itemprop="author"]`,
		`[rel="author"]`,
		`[class*="author"]`,
		`[class*="writer"]`,
		`[class~="nick"]`,
	}
	dateSelectors = []string{
		`[itemprop="datePublished"]`,
		`[class*="publishDate"]`,
		`[class*="publish_date"]`,
		`[class*="date"]`,
	}
)

// extractMetadata collects author, publish date and meta tags.
// The first match per field wins.
func extractMetadata(doc *goquery.Document) gleaner.DocumentMetadata {
	var md gleaner.DocumentMetadata

	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key := sel.AttrOr("name", sel.AttrOr("property", ""))
		content, ok := sel.Attr("content")
		if key == "" || !ok {
			return
		}
		key = strings.ToLower(key)
		if _, seen := meta[key]; !seen {
			meta[key] = strings.TrimSpace(content)
		}
	})
	if len(meta) > 0 {
		md.Meta = meta
	}

	md.Author = meta["author"]
	if md.Author == "" {
		md.Author = firstText(doc, authorSelectors)
	}

	md.Description = meta["description"]
	if md.Description == "" {
		md.Description = meta["og:description"]
	}
	md.SiteName = meta["og:site_name"]

	if t, ok := ParseDate(meta["article:published_time"]); ok {
		md.PublishDate = &t
	} else if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, ok := ParseDate(datetime); ok {
			md.PublishDate = &t
		}
	}
	if md.PublishDate == nil {
		for _, selector := range dateSelectors {
			if t, ok := ParseDate(doc.Find(selector).First().Text()); ok {
				md.PublishDate = &t
				break
			}
		}
	}

	return md
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := collapse(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractStructuredData decodes JSON-LD blocks. Invalid blocks are skipped.
func extractStructuredData(doc *goquery.Document) []map[string]any {
	var data []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := []byte(strings.TrimSpace(sel.Text()))
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err == nil {
			data = append(data, obj)
			return
		}
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err == nil {
			data = append(data, list...)
		}
	})
	return data
}

// extractImages lists images in sel, resolving lazy-loading attributes.
func extractImages(sel *goquery.Selection) []gleaner.Image {
	var images []gleaner.Image
	seen := make(map[string]bool)
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := ""
		for _, attr := range []string{"data-lazy-src", "data-src", "src"} {
			if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
				src = v
				break
			}
		}
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, gleaner.Image{Src: src, Alt: strings.TrimSpace(img.AttrOr("alt", ""))})
	})
	return images
}

// ParseDate parses ISO-8601 timestamps and the Korean YYYY.MM.DD convention
// (optionally followed by HH:MM). Dates without a zone are taken as KST.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, kst); err == nil {
			return t, true
		}
	}

	m := dottedDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
	hour, minute := 0, 0
	if m[4] != "" {
		hour, minute = atoi(m[4]), atoi(m[5])
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, kst)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

var (
	kst        = time.FixedZone("KST", 9*60*60)
	dottedDate = regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?(?:\s+(\d{1,2}):(\d{2}))?`)
)

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// collapse joins all whitespace runs into single spaces and trims.
func collapse(s string) string {
	return strings.TrimSpace(anySpaceRun.ReplaceAllString(s, " "))
}

// Text renders the plain text of sel.
//
// Without preserveFormatting all whitespace collapses to single spaces.
// With it, block elements become paragraph breaks, <br> becomes a line
// break, and text without any block structure is split after sentence-ending
// punctuation.
func Text(sel *goquery.Selection, preserveFormatting bool) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		walk(&sb, n)
	}
	return normalize(sb.String(), preserveFormatting)
}

func normalize(s string, preserveFormatting bool) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u200b", "")

	if !preserveFormatting {
		s = collapse(s)
		return tagLike.ReplaceAllString(s, "< $1")
	}

	s = spaceRun.ReplaceAllString(s, " ")
	s = spacedBreak.ReplaceAllString(s, "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if s != "" && !strings.Contains(s, "\n") {
		s = strings.TrimSpace(sentenceEnd.ReplaceAllString(s, "$1\n\n"))
	}
	return tagLike.ReplaceAllString(s, "< $1")
}

// walk appends the text of n to sb using an explicit stack, so deeply
// nested documents cannot exhaust the goroutine stack.
func walk(sb *strings.Builder, root *html.Node) {
	type frame struct {
		node *html.Node
		exit bool
	}
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		if f.exit {
			sb.WriteString(blockSeparator(n))
			continue
		}

		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			continue
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				continue
			case atom.Br:
				sb.WriteString("\n")
				continue
			case atom.Img:
				sb.WriteString(" ")
				continue
			}
			sb.WriteString(blockSeparator(n))
			stack = append(stack, frame{node: n, exit: true})
		case html.DocumentNode:
		default:
			continue
		}

		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, frame{node: c})
		}
	}
}

func blockSeparator(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return separator(n.DataAtom)
}

func separator(a atom.Atom) string {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Ul, atom.Ol, atom.Table,
		atom.Figure, atom.Hr, atom.Header, atom.Footer, atom.Aside, atom.Dl:
		return "\n\n"
	case atom.Li, atom.Tr, atom.Dt, atom.Dd, atom.Figcaption:
		return "\n"
	case atom.Td, atom.Th:
		return " "
	}
	return ""
}

// tokenText strips tags from rawHTML in a single pass over its tokens,
// without building a tree. Script, style and head content are dropped; the
// <title> text is returned separately.
func tokenText(rawHTML string, preserveFormatting bool) (title, content string) {
	var body, head strings.Builder
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var skip atom.Atom
	inTitle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", ""
			}
			return collapse(head.String()), normalize(body.String(), preserveFormatting)
		case html.TextToken:
			switch {
			case inTitle:
				head.Write(z.Text())
			case skip == 0:
				body.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if tt == html.EndTagToken {
				switch {
				case a == atom.Title:
					inTitle = false
				case a == skip:
					skip = 0
				}
				if skip == 0 {
					body.WriteString(separator(a))
				}
				continue
			}
			if a == atom.Title {
				inTitle = tt == html.StartTagToken
				continue
			}
			if skip != 0 {
				continue
			}
			switch a {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				if tt == html.StartTagToken {
					skip = a
				}
			case atom.Br:
				body.WriteString("\n")
			case atom.Img:
				body.WriteString(" ")
			default:
				body.WriteString(separator(a))
			}
		}
	}
}
