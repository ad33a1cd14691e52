// Package fs writes extracted content to disk as Markdown files.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/gleaner"
	"gopkg.in/yaml.v3"
)

// ContentPath returns the relative file path for content.
// Example: youtube/dQw4w9WgXcQ.md, naver/ranto28/224023632772.md
func ContentPath(c *gleaner.ExtractedContent) (string, error) {
	switch {
	case c.Metadata.YouTube != nil && c.Metadata.YouTube.VideoID != "":
		return filepath.Join("youtube", c.Metadata.YouTube.VideoID+".md"), nil
	case c.Metadata.Naver != nil && c.Metadata.Naver.BlogID != "" && c.Metadata.Naver.PostID != "":
		return filepath.Join("naver", c.Metadata.Naver.BlogID, c.Metadata.Naver.PostID+".md"), nil
	}

	parsed := gleaner.Classify(c.SourceURL)
	if !parsed.IsValid || parsed.ID == nil {
		return "", gleaner.Errorf(gleaner.EINVALIDURL, "no identifier for %q", c.SourceURL)
	}
	return filepath.Join(string(parsed.Platform), filepath.FromSlash(parsed.ID.String())+".md"), nil
}

type frontMatter struct {
	Source    string   `yaml:"source"`
	Platform  string   `yaml:"platform"`
	Title     string   `yaml:"title"`
	Language  string   `yaml:"language,omitempty"`
	Extracted string   `yaml:"extracted"`
	Method    string   `yaml:"method,omitempty"`
	VideoID   string   `yaml:"video_id,omitempty"`
	Duration  string   `yaml:"duration,omitempty"`
	Languages []string `yaml:"languages,omitempty"`
	BlogID    string   `yaml:"blog_id,omitempty"`
	PostID    string   `yaml:"post_id,omitempty"`
	Author    string   `yaml:"author,omitempty"`
	Published string   `yaml:"published,omitempty"`
}

// FormatContent formats content with YAML front matter.
func FormatContent(c *gleaner.ExtractedContent) (string, error) {
	fm := frontMatter{
		Source:    c.SourceURL,
		Platform:  string(c.SourceType),
		Title:     c.Title,
		Language:  c.Language,
		Extracted: c.Timestamp.UTC().Format(time.RFC3339),
		Method:    c.Metadata.ExtractionMethod,
	}
	if yt := c.Metadata.YouTube; yt != nil {
		fm.VideoID = yt.VideoID
		if yt.Duration > 0 {
			fm.Duration = yt.Duration.String()
		}
		fm.Languages = yt.AvailableLanguages
	}
	if nv := c.Metadata.Naver; nv != nil {
		fm.BlogID = nv.BlogID
		fm.PostID = nv.PostID
		fm.Author = nv.Author
		if nv.PublishDate != nil {
			fm.Published = nv.PublishDate.Format(time.RFC3339)
		}
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(c.Content)
	b.WriteString("\n")
	return b.String(), nil
}

// Ensure Writer implements gleaner.ContentWriter at compile time.
var _ gleaner.ContentWriter = (*Writer)(nil)

// Writer writes extracted content as markdown files to a directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write writes content to disk and returns the path of the file.
// The file is replaced atomically so readers never see partial output.
func (w *Writer) Write(ctx context.Context, c *gleaner.ExtractedContent) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relPath, err := ContentPath(c)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(w.baseDir, relPath)

	text, err := FormatContent(c)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".gleaner-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}
