package youtube

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Cue is one timed caption line.
type Cue struct {
	Start    time.Duration
	Duration time.Duration
	Text     string
}

// Track is a caption track available for a video.
type Track struct {
	// BaseURL downloads the track payload.
	BaseURL string

	LanguageCode string
	Name         string

	// Kind is "asr" for automatic captions and empty otherwise.
	Kind string
}

// IsAutomatic reports whether the track was generated by speech recognition.
func (t Track) IsAutomatic() bool {
	return t.Kind == "asr"
}

// SelectTrack picks the track to download: an exact match for lang, then
// Korean, then English, then the first track. Manual tracks win over
// automatic ones within the same language.
func SelectTrack(tracks []Track, lang string) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}

	var preferences [][]string
	if lang != "" {
		preferences = append(preferences, []string{lang})
	}
	preferences = append(preferences, []string{"ko", "kr"}, []string{"en", "en-US"})

	for _, codes := range preferences {
		if t, ok := findTrack(tracks, codes); ok {
			return t, true
		}
	}
	return tracks[0], true
}

func findTrack(tracks []Track, codes []string) (Track, bool) {
	var fallback *Track
	for _, code := range codes {
		for i := range tracks {
			if !strings.EqualFold(tracks[i].LanguageCode, code) {
				continue
			}
			if !tracks[i].IsAutomatic() {
				return tracks[i], true
			}
			if fallback == nil {
				fallback = &tracks[i]
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Track{}, false
}

// Languages lists the distinct language codes of tracks in order.
func Languages(tracks []Track) []string {
	langs := make([]string, 0, len(tracks))
	seen := make(map[string]bool)
	for _, t := range tracks {
		if t.LanguageCode == "" || seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		langs = append(langs, t.LanguageCode)
	}
	return langs
}

// ParseCaptions decodes a caption payload into cues ordered by start time.
// JSON3, timed-text XML (srv1 and srv3) and SRT/WebVTT are detected from
// the payload itself.
func ParseCaptions(body []byte) ([]Cue, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty caption payload")
	}

	var (
		cues []Cue
		err  error
	)
	switch body[0] {
	case '{':
		cues, err = parseJSON3(body)
	case '<':
		cues, err = parseXML(body)
	default:
		cues, err = parseSRT(body)
	}
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(cues, func(a, b Cue) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return cues, nil
}

type json3Payload struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(body []byte) ([]Cue, error) {
	var payload json3Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding json3 captions: %w", err)
	}

	var cues []Cue
	for _, ev := range payload.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		cues = appendCue(cues, Cue{
			Start:    time.Duration(ev.StartMs) * time.Millisecond,
			Duration: time.Duration(ev.DurationMs) * time.Millisecond,
			Text:     sb.String(),
		})
	}
	return cues, nil
}

func parseXML(body []byte) ([]Cue, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parsing caption XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty caption XML")
	}

	var cues []Cue
	switch root.Tag {
	case "transcript":
		// srv1: <text start="1.2" dur="3.4">...</text>, times in seconds.
		for _, el := range root.SelectElements("text") {
			cues = appendCue(cues, Cue{
				Start:    seconds(el.SelectAttrValue("start", "0")),
				Duration: seconds(el.SelectAttrValue("dur", "0")),
				Text:     elementText(el),
			})
		}
	case "timedtext":
		// srv3: <body><p t="1200" d="3400">...</p></body>, times in ms.
		body := root.SelectElement("body")
		if body == nil {
			return nil, nil
		}
		for _, el := range body.SelectElements("p") {
			cues = appendCue(cues, Cue{
				Start:    millis(el.SelectAttrValue("t", "0")),
				Duration: millis(el.SelectAttrValue("d", "0")),
				Text:     elementText(el),
			})
		}
	default:
		return nil, fmt.Errorf("unknown caption XML root %q", root.Tag)
	}
	return cues, nil
}

// elementText concatenates all character data below el.
func elementText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			if t.Tag == "br" {
				sb.WriteString(" ")
				continue
			}
			sb.WriteString(elementText(t))
		}
	}
	return sb.String()
}

var srtTiming = regexp.MustCompile(`^((?:\d+:)?\d{1,2}:\d{2}[,.]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[,.]\d{1,3})`)

// parseSRT reads SRT and WebVTT cue blocks. Blocks without a timing line
// (indices, WEBVTT headers, NOTE blocks) are skipped.
func parseSRT(body []byte) ([]Cue, error) {
	text := strings.ReplaceAll(string(body), "\r\n", "\n")

	var cues []Cue
	timed := false
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		for i, line := range lines {
			m := srtTiming.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			timed = true
			start, end := clock(m[1]), clock(m[2])
			cues = appendCue(cues, Cue{
				Start:    start,
				Duration: max(end-start, 0),
				Text:     strings.Join(lines[i+1:], " "),
			})
			break
		}
	}
	if !timed {
		return nil, fmt.Errorf("unrecognized caption format")
	}
	return cues, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// appendCue cleans c and appends it unless its text is empty.
func appendCue(cues []Cue, c Cue) []Cue {
	text := html.UnescapeString(c.Text)
	text = tagPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return cues
	}
	c.Text = text
	return append(cues, c)
}

func seconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func millis(s string) time.Duration {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

// clock parses [hh:]mm:ss,mmm (or with a dot).
func clock(s string) time.Duration {
	s = strings.Replace(s, ",", ".", 1)
	parts := strings.Split(s, ":")
	minutes := 0
	for _, p := range parts[:len(parts)-1] {
		n, _ := strconv.Atoi(p)
		minutes = minutes*60 + n
	}
	return time.Duration(minutes)*time.Minute + seconds(parts[len(parts)-1])
}

// FormatCues renders cues as one line each. With timestamps every line is
// prefixed by [mm:ss], or [hh:mm:ss] when hours is set.
func FormatCues(cues []Cue, timestamps, hours bool) string {
	lines := make([]string, 0, len(cues))
	for _, c := range cues {
		if timestamps {
			lines = append(lines, "["+FormatTimestamp(c.Start, hours)+"] "+c.Text)
		} else {
			lines = append(lines, c.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders d as mm:ss, or hh:mm:ss when hours is set.
func FormatTimestamp(d time.Duration, hours bool) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if hours {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", total/60, s)
}
