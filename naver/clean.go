package naver

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	gqparser "github.com/fwojciec/gleaner/goquery"
)

var (
	sourceLine      = regexp.MustCompile(`(?m)^[ \t]*출처[ \t]*:.*$`)
	engagement      = regexp.MustCompile(`(?m)(^|[ \t])(?:공감|댓글|스크랩|조회수?)[ \t]*\d[\d,]*([ \t]|$)`)
	trailingLine    = regexp.MustCompile(`^(?:공유하기|신고하기|블로그 보내기|카페 보내기|Keep 보내기|메모 보내기|URL 복사|이웃추가|인쇄|태그|전체보기.*|저작자 명시 필수.*|영리적 사용 불가.*|내용 변경 불가.*|이 블로그 .*카테고리 글)$`)
	spaceRun        = regexp.MustCompile(`[ \t\p{Zs}]+`)
	newlineRun      = regexp.MustCompile(`\n{3,}`)
	privateMarkers  = []string{"비공개 글입니다", "비공개 포스트", "비공개로 설정된", "삭제된 게시물", "삭제되었거나", "존재하지 않는 게시물", "존재하지 않는 포스트", "존재하지 않는 블로그"}
	titleSiteSuffix = []string{" : 네이버 블로그", " : 네이버블로그", " - 네이버 블로그"}
)

// IsUnavailable reports whether page is Naver's private, deleted or
// missing post notice. Only visible text counts, and a page carrying a post
// body is never a notice even when the post quotes one.
func IsUnavailable(page string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return false
	}
	if doc.Find(strings.Join(gqparser.NaverContentSelectors, ", ")).Length() > 0 {
		return false
	}
	doc.Find("script, style, noscript, template, head").Remove()

	text := doc.Text()
	for _, m := range privateMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Clean removes Naver UI artifacts from extracted text: citation lines,
// engagement counters and the trailing share/license block.
func Clean(s string) string {
	return clean(s, true)
}

// clean strips artifacts. Markdown keeps its indentation, so only plain
// text has its space runs collapsed.
func clean(s string, collapse bool) string {
	s = sourceLine.ReplaceAllString(s, "")
	// Adjacent counters share a separator, so repeat until stable.
	for range 4 {
		next := engagement.ReplaceAllString(s, "${1}${2}")
		if next == s {
			break
		}
		s = next
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if collapse {
			line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		} else if strings.TrimSpace(line) == "" {
			line = ""
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last != "" && !trailingLine.MatchString(last) {
			break
		}
		lines = lines[:len(lines)-1]
	}

	s = strings.Join(lines, "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n")
}

// Paragraphs renders s as Markdown paragraphs separated by blank lines.
func Paragraphs(s string) string {
	var paras []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n\n")
}

// CleanTitle strips the blog site suffix from a page title.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range titleSiteSuffix {
		title = strings.TrimSuffix(title, suffix)
	}
	if title == "네이버 블로그" {
		return ""
	}
	return strings.TrimSpace(title)
}
