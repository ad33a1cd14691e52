package slog_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/mock"
	gslog "github.com/fwojciec/gleaner/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	const rawURL = "https://blog.naver.com/ranto28/224023632772"

	t.Run("logs method and size", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.ContentExtractor{
			PlatformFn: func() gleaner.Platform { return gleaner.PlatformNaver },
			ExtractFn: func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
				c := &gleaner.ExtractedContent{Metadata: gleaner.ContentMetadata{ExtractionMethod: "naver-html"}}
				c.SetContent("본문 내용")
				return c, nil
			},
		}

		e := gslog.NewLoggingExtractor(inner, debugLogger(&buf))
		got, err := e.Extract(context.Background(), rawURL, gleaner.Options{})

		require.NoError(t, err)
		assert.Equal(t, "본문 내용", got.Content)
		output := buf.String()
		assert.Contains(t, output, "msg=\"platform extract\"")
		assert.Contains(t, output, "platform=naver")
		assert.Contains(t, output, "method=naver-html")
		assert.Contains(t, output, "chars=5")
		assert.NotContains(t, output, "code=")
	})

	t.Run("logs error code", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.ContentExtractor{
			PlatformFn: func() gleaner.Platform { return gleaner.PlatformNaver },
			ExtractFn: func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
				return nil, gleaner.Errorf(gleaner.ENOTFOUND, "post deleted")
			},
		}

		e := gslog.NewLoggingExtractor(inner, debugLogger(&buf))
		_, err := e.Extract(context.Background(), rawURL, gleaner.Options{})

		assert.Equal(t, gleaner.ENOTFOUND, gleaner.ErrorCode(err))
		assert.Contains(t, buf.String(), "code="+gleaner.ENOTFOUND)
	})

	t.Run("delegates platform and validation", func(t *testing.T) {
		t.Parallel()

		inner := &mock.ContentExtractor{
			PlatformFn: func() gleaner.Platform { return gleaner.PlatformYouTube },
			ValidateFn: gleaner.Classify,
		}

		e := gslog.NewLoggingExtractor(inner, debugLogger(&bytes.Buffer{}))

		assert.Equal(t, gleaner.PlatformYouTube, e.Platform())
		assert.True(t, e.Validate("https://youtu.be/dQw4w9WgXcQ").IsValid)
	})
}

func TestLoggingCache(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var stored *gleaner.ExtractedContent
	inner := &mock.ResultCache{
		GetFn: func(context.Context, string) (*gleaner.ExtractedContent, error) {
			return stored, nil
		},
		SetFn: func(_ context.Context, _ string, c *gleaner.ExtractedContent, _ time.Duration) error {
			stored = c
			return nil
		},
	}
	c := gslog.NewLoggingCache(inner, debugLogger(&buf))
	ctx := context.Background()

	got, err := c.Get(ctx, "youtube:dQw4w9WgXcQ:0")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Contains(t, buf.String(), "hit=false")

	require.NoError(t, c.Set(ctx, "youtube:dQw4w9WgXcQ:0", &gleaner.ExtractedContent{Title: "t"}, time.Hour))
	assert.Contains(t, buf.String(), "msg=\"cache set\"")
	assert.Contains(t, buf.String(), "ttl=1h0m0s")

	got, err = c.Get(ctx, "youtube:dQw4w9WgXcQ:0")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Contains(t, buf.String(), "hit=true")
}
