// Package youtube extracts caption transcripts from YouTube videos.
package youtube

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/gleaner"
	"github.com/google/uuid"
)

// Ensure Extractor implements gleaner.ContentExtractor at compile time.
var _ gleaner.ContentExtractor = (*Extractor)(nil)

// Extraction methods recorded in ContentMetadata.ExtractionMethod.
const (
	MethodInnertube = "youtube-innertube"
	MethodDataAPI   = "youtube-data-api"
)

// Defaults for Config.
const (
	DefaultBaseURL        = "https://www.youtube.com"
	DefaultDataAPIURL     = "https://www.googleapis.com/youtube/v3"
	DefaultLanguage       = "ko"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultClientVersion  = "2.20241010.00.00"
)

// Config configures an Extractor. Zero fields take the defaults above.
type Config struct {
	// APIKey enables the YouTube Data API strategy for listing tracks.
	APIKey string

	// Language is used when Options.Language is empty.
	Language string

	AcceptLanguage string

	// BaseURL and DataAPIURL are overridden in tests.
	BaseURL    string
	DataAPIURL string

	// PageFetcher, when set, fetches the watch page instead of the main
	// fetcher (for example a headless browser).
	PageFetcher gleaner.Fetcher
}

// Extractor fetches caption tracks for a video and renders them as text.
type Extractor struct {
	fetcher gleaner.Fetcher
	config  Config

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewExtractor creates an Extractor performing requests through fetcher.
func NewExtractor(fetcher gleaner.Fetcher, config Config) *Extractor {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.DataAPIURL == "" {
		config.DataAPIURL = DefaultDataAPIURL
	}
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = DefaultAcceptLanguage
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.DataAPIURL = strings.TrimRight(config.DataAPIURL, "/")

	return &Extractor{
		fetcher: fetcher,
		config:  config,
		Now:     time.Now,
	}
}

// Platform returns gleaner.PlatformYouTube.
func (e *Extractor) Platform() gleaner.Platform {
	return gleaner.PlatformYouTube
}

// Validate classifies rawURL.
func (e *Extractor) Validate(rawURL string) gleaner.ParsedURL {
	return gleaner.Classify(rawURL)
}

// video is what the track listing step learns about a video.
type video struct {
	title    string
	duration time.Duration
	tracks   []Track
	method   string
}

// Extract downloads the transcript of the video behind rawURL.
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
	parsed := gleaner.Classify(rawURL)
	if parsed.Platform != gleaner.PlatformYouTube || !parsed.IsValid {
		return nil, gleaner.Errorf(gleaner.EINVALIDURL, "no YouTube video ID in %q", rawURL)
	}
	videoID := parsed.ID.VideoID

	lang := opts.Language
	if lang == "" {
		lang = e.config.Language
	}

	page, err := e.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var v *video
	if e.config.APIKey != "" {
		v, err = e.listDataAPITracks(ctx, videoID)
	} else {
		v, err = e.listInnertubeTracks(ctx, videoID, page, lang)
	}
	if err != nil {
		return nil, err
	}
	if title := pageTitle(page); title != "" {
		v.title = title
	}

	if len(v.tracks) == 0 {
		return nil, gleaner.Errorf(gleaner.ENOSUBTITLES, "video %s has no caption tracks", videoID)
	}
	track, _ := SelectTrack(v.tracks, lang)

	cues, err := e.downloadTrack(ctx, track)
	if err != nil {
		return nil, err
	}
	if len(cues) == 0 {
		return nil, gleaner.Errorf(gleaner.ENOSUBTITLES, "caption track %s of %s is empty", track.LanguageCode, videoID)
	}

	hours := v.duration > time.Hour || cues[len(cues)-1].Start >= time.Hour

	content := &gleaner.ExtractedContent{
		ID:         uuid.NewString(),
		SourceURL:  strings.TrimSpace(rawURL),
		SourceType: gleaner.PlatformYouTube,
		Title:      v.title,
		Language:   track.LanguageCode,
		Timestamp:  e.Now().UTC(),
		Metadata: gleaner.ContentMetadata{
			YouTube: &gleaner.YouTubeMetadata{
				VideoID:            videoID,
				Duration:           v.duration,
				AvailableLanguages: Languages(v.tracks),
				HasTimestamps:      opts.IncludeTimestamps,
			},
			ExtractionMethod: v.method,
		},
	}
	content.SetContent(FormatCues(cues, opts.IncludeTimestamps, hours))
	return content, nil
}

func (e *Extractor) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	fetcher := e.fetcher
	if e.config.PageFetcher != nil {
		fetcher = e.config.PageFetcher
	}

	resp, err := fetcher.Fetch(ctx, &gleaner.Request{
		URL:    e.config.BaseURL + "/watch?v=" + url.QueryEscape(videoID),
		Header: map[string]string{"Accept-Language": e.config.AcceptLanguage},
	})
	if err != nil {
		return "", gleaner.FetchError("fetch watch page", err)
	}
	return string(resp.Body), nil
}

// pageTitle reads <title> and strips the site suffix.
func pageTitle(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSpace(strings.TrimSuffix(title, " - YouTube"))
}

var (
	apiKeyPattern        = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([^"]+)"`)
	clientVersionPattern = regexp.MustCompile(`"INNERTUBE_CLIENT_VERSION"\s*:\s*"([^"]+)"`)
)

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl,omitempty"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		Title         string `json:"title"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	Captions struct {
		Renderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"`
				Name         struct {
					SimpleText string `json:"simpleText"`
					Runs       []struct {
						Text string `json:"text"`
					} `json:"runs"`
				} `json:"name"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// listInnertubeTracks asks the player endpoint for caption tracks using the
// API key embedded in the watch page.
func (e *Extractor) listInnertubeTracks(ctx context.Context, videoID, page, lang string) (*video, error) {
	m := apiKeyPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "watch page of %s has no INNERTUBE_API_KEY", videoID)
	}
	apiKey := m[1]

	var req playerRequest
	req.VideoID = videoID
	req.Context.Client.ClientName = "WEB"
	req.Context.Client.ClientVersion = DefaultClientVersion
	req.Context.Client.HL = lang
	if m := clientVersionPattern.FindStringSubmatch(page); m != nil {
		req.Context.Client.ClientVersion = m[1]
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "encoding player request: %v", err)
	}

	resp, err := e.fetcher.Fetch(ctx, &gleaner.Request{
		Method: "POST",
		URL:    e.config.BaseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey),
		Header: map[string]string{
			"Content-Type":    "application/json",
			"Accept-Language": e.config.AcceptLanguage,
		},
		Body: body,
	})
	if err != nil {
		return nil, gleaner.FetchError("fetch player", err)
	}

	var player playerResponse
	if err := json.Unmarshal(resp.Body, &player); err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "decoding player response: %v", err)
	}
	if err := playabilityError(videoID, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason); err != nil {
		return nil, err
	}

	v := &video{
		title:  player.VideoDetails.Title,
		method: MethodInnertube,
	}
	if secs, err := strconv.Atoi(player.VideoDetails.LengthSeconds); err == nil {
		v.duration = time.Duration(secs) * time.Second
	}
	for _, ct := range player.Captions.Renderer.CaptionTracks {
		name := ct.Name.SimpleText
		if name == "" && len(ct.Name.Runs) > 0 {
			name = ct.Name.Runs[0].Text
		}
		v.tracks = append(v.tracks, Track{
			BaseURL:      ct.BaseURL,
			LanguageCode: ct.LanguageCode,
			Name:         name,
			Kind:         ct.Kind,
		})
	}
	return v, nil
}

// playabilityError maps a non-OK playability status to an error.
func playabilityError(videoID, status, reason string) error {
	switch status {
	case "", "OK":
		return nil
	case "ERROR":
		return gleaner.Errorf(gleaner.ENOTFOUND, "video %s unavailable: %s", videoID, reason)
	case "LOGIN_REQUIRED":
		lower := strings.ToLower(reason)
		if strings.Contains(lower, "private") || strings.Contains(reason, "비공개") {
			return gleaner.Errorf(gleaner.ENOTFOUND, "video %s is private: %s", videoID, reason)
		}
		return gleaner.Errorf(gleaner.EACCESSDENIED, "video %s requires login: %s", videoID, reason)
	default:
		return gleaner.Errorf(gleaner.EACCESSDENIED, "video %s is %s: %s", videoID, strings.ToLower(status), reason)
	}
}

type captionListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Language  string `json:"language"`
			TrackKind string `json:"trackKind"`
			Name      string `json:"name"`
		} `json:"snippet"`
	} `json:"items"`
}

// listDataAPITracks lists tracks through the Data API captions.list method.
// Payloads are then downloaded from the public timedtext endpoint.
func (e *Extractor) listDataAPITracks(ctx context.Context, videoID string) (*video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", videoID)
	q.Set("key", e.config.APIKey)

	resp, err := e.fetcher.Fetch(ctx, &gleaner.Request{
		URL: e.config.DataAPIURL + "/captions?" + q.Encode(),
	})
	if err != nil {
		return nil, gleaner.FetchError("list captions", err)
	}

	var list captionListResponse
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "decoding captions list: %v", err)
	}

	v := &video{method: MethodDataAPI}
	for _, item := range list.Items {
		kind := ""
		if strings.EqualFold(item.Snippet.TrackKind, "asr") {
			kind = "asr"
		}
		tq := url.Values{}
		tq.Set("v", videoID)
		tq.Set("lang", item.Snippet.Language)
		if kind != "" {
			tq.Set("kind", kind)
		}
		if item.Snippet.Name != "" {
			tq.Set("name", item.Snippet.Name)
		}
		v.tracks = append(v.tracks, Track{
			BaseURL:      e.config.BaseURL + "/api/timedtext?" + tq.Encode(),
			LanguageCode: item.Snippet.Language,
			Name:         item.Snippet.Name,
			Kind:         kind,
		})
	}
	return v, nil
}

// downloadTrack fetches the track payload, asking for JSON3.
func (e *Extractor) downloadTrack(ctx context.Context, track Track) ([]Cue, error) {
	u, err := url.Parse(track.BaseURL)
	if err != nil || track.BaseURL == "" {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "invalid caption track URL %q", track.BaseURL)
	}
	q := u.Query()
	if q.Get("fmt") == "" {
		q.Set("fmt", "json3")
		u.RawQuery = q.Encode()
	}

	resp, err := e.fetcher.Fetch(ctx, &gleaner.Request{
		URL:    u.String(),
		Header: map[string]string{"Accept-Language": e.config.AcceptLanguage},
	})
	if err != nil {
		return nil, gleaner.FetchError("download captions", err)
	}

	cues, err := ParseCaptions(resp.Body)
	if err != nil {
		return nil, gleaner.Errorf(gleaner.EEXTRACTION, "%s captions: %v", track.LanguageCode, err)
	}
	return cues, nil
}
