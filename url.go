package gleaner

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a content source.
type Platform string

// Platform constants.
const (
	PlatformYouTube Platform = "youtube"
	PlatformNaver   Platform = "naver"
	PlatformUnknown Platform = "unknown"
)

// IdentifierKind discriminates the Identifier union.
type IdentifierKind string

// IdentifierKind constants.
const (
	KindVideo IdentifierKind = "video"
	KindPost  IdentifierKind = "post"
)

// Identifier is the canonical handle of remote content: a YouTube video ID
// (KindVideo) or a Naver blog ID and post ID pair (KindPost).
type Identifier struct {
	Kind    IdentifierKind `json:"kind"`
	VideoID string         `json:"videoId,omitempty"`
	BlogID  string         `json:"blogId,omitempty"`
	PostID  string         `json:"postId,omitempty"`
}

// String returns the identifier in a form suitable for keys and logs.
func (id *Identifier) String() string {
	if id == nil {
		return ""
	}
	switch id.Kind {
	case KindVideo:
		return id.VideoID
	case KindPost:
		return id.BlogID + "/" + id.PostID
	}
	return ""
}

// ParsedURL is the result of classifying a raw URL.
// IsValid is true iff ID is non-nil and matches the platform's grammar.
type ParsedURL struct {
	Platform Platform    `json:"platform"`
	ID       *Identifier `json:"id"`
	IsValid  bool        `json:"isValid"`
}

// NormalizedURL returns the canonical URL for a valid ParsedURL and the
// empty string otherwise. Classifying the result yields the same ParsedURL.
func (p ParsedURL) NormalizedURL() string {
	if !p.IsValid || p.ID == nil {
		return ""
	}
	switch p.Platform {
	case PlatformYouTube:
		return "https://www.youtube.com/watch?v=" + p.ID.VideoID
	case PlatformNaver:
		return "https://blog.naver.com/" + p.ID.BlogID + "/" + p.ID.PostID
	}
	return ""
}

var (
	schemePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoPathPattern  = regexp.MustCompile(`^/(?:embed|v|shorts|live)/([^/]+)`)
	blogIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	postIDPattern     = regexp.MustCompile(`^\d+$`)
	naverPathPattern  = regexp.MustCompile(`^/([A-Za-z0-9_-]+)/(\d+)`)
	unknownParsedURL  = ParsedURL{Platform: PlatformUnknown}
	naverPostViewPath = []string{"postview.naver", "postview.nhn"}
)

// Classify determines the platform of raw and extracts its identifier.
// It never panics; anything unparsable is PlatformUnknown.
func Classify(raw string) ParsedURL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownParsedURL
	}
	if !schemePattern.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return unknownParsedURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return unknownParsedURL
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be"):
		return classifyYouTube(host, u)
	case strings.Contains(host, "blog.naver.com"):
		return classifyNaver(u)
	}
	return unknownParsedURL
}

func classifyYouTube(host string, u *url.URL) ParsedURL {
	var candidate string
	switch {
	case strings.Contains(host, "youtu.be"):
		candidate, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case u.Path == "/watch" || u.Path == "/watch/":
		candidate = u.Query().Get("v")
	default:
		if m := videoPathPattern.FindStringSubmatch(u.Path); m != nil {
			candidate = m[1]
		}
	}

	if !videoIDPattern.MatchString(candidate) {
		return ParsedURL{Platform: PlatformYouTube}
	}
	return ParsedURL{
		Platform: PlatformYouTube,
		ID:       &Identifier{Kind: KindVideo, VideoID: candidate},
		IsValid:  true,
	}
}

func classifyNaver(u *url.URL) ParsedURL {
	var blogID, postID string

	// The query form wins: the path pattern would otherwise misread
	// "/PostView.naver" style paths.
	if isPostViewPath(u.Path) {
		q := u.Query()
		blogID, postID = q.Get("blogId"), q.Get("logNo")
	} else if m := naverPathPattern.FindStringSubmatch(u.Path); m != nil {
		blogID, postID = m[1], m[2]
	}

	if !blogIDPattern.MatchString(blogID) || !postIDPattern.MatchString(postID) {
		return ParsedURL{Platform: PlatformNaver}
	}
	return ParsedURL{
		Platform: PlatformNaver,
		ID:       &Identifier{Kind: KindPost, BlogID: blogID, PostID: postID},
		IsValid:  true,
	}
}

func isPostViewPath(path string) bool {
	path = strings.ToLower(path)
	for _, p := range naverPostViewPath {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// Validation is the network-free answer to "can this URL be extracted?".
type Validation struct {
	Valid         bool     `json:"valid"`
	Type          Platform `json:"type"`
	NormalizedURL string   `json:"normalizedUrl,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Validate classifies raw and reshapes the result for validation callers.
func Validate(raw string) Validation {
	p := Classify(raw)
	v := Validation{Valid: p.IsValid, Type: p.Platform}
	switch {
	case p.Platform == PlatformUnknown:
		v.Reason = DefaultMessage(EUNSUPPORTEDPLATFORM)
	case !p.IsValid:
		v.Reason = DefaultMessage(EINVALIDURL)
	default:
		v.NormalizedURL = p.NormalizedURL()
	}
	return v
}
