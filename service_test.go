package gleaner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	youtubeURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	naverURL   = "https://blog.naver.com/ranto28/224023632772"
)

func newExtractor(platform gleaner.Platform, fn func(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error)) *mock.ContentExtractor {
	return &mock.ContentExtractor{
		PlatformFn: func() gleaner.Platform { return platform },
		ValidateFn: gleaner.Classify,
		ExtractFn:  fn,
	}
}

func failingExtractor(t *testing.T, platform gleaner.Platform) *mock.ContentExtractor {
	t.Helper()
	return newExtractor(platform, func(_ context.Context, rawURL string, _ gleaner.Options) (*gleaner.ExtractedContent, error) {
		t.Errorf("unexpected extraction of %s", rawURL)
		return nil, errors.New("unexpected call")
	})
}

func TestService_Extract(t *testing.T) {
	t.Parallel()

	t.Run("rejects unsupported platform without dispatching", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(failingExtractor(t, gleaner.PlatformYouTube), failingExtractor(t, gleaner.PlatformNaver))

		r := svc.Extract(context.Background(), "https://twitter.com/user/status/1", gleaner.Options{})

		assert.False(t, r.Success)
		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EUNSUPPORTEDPLATFORM, r.Error.Code)
		assert.False(t, r.Error.Retryable)
		assert.Equal(t, gleaner.StateRejected, gleaner.ResultState(r))
	})

	t.Run("rejects invalid identifier without dispatching", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(failingExtractor(t, gleaner.PlatformYouTube))

		r := svc.Extract(context.Background(), "https://www.youtube.com/watch?v=short", gleaner.Options{})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EINVALIDURL, r.Error.Code)
		assert.Equal(t, gleaner.StateRejected, gleaner.ResultState(r))
	})

	t.Run("rejects platform without extractor", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(failingExtractor(t, gleaner.PlatformYouTube))

		r := svc.Extract(context.Background(), naverURL, gleaner.Options{})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EUNSUPPORTEDPLATFORM, r.Error.Code)
	})

	t.Run("dispatches to matching extractor", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		var gotOpts gleaner.Options
		svc := gleaner.NewService(
			failingExtractor(t, gleaner.PlatformYouTube),
			newExtractor(gleaner.PlatformNaver, func(_ context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
				gotURL, gotOpts = rawURL, opts
				return &gleaner.ExtractedContent{
					ID:         "id",
					SourceType: gleaner.PlatformNaver,
					Content:    "본문 내용",
				}, nil
			}),
		)

		opts := gleaner.Options{Format: gleaner.FormatMarkdown}
		r := svc.Extract(context.Background(), naverURL, opts)

		require.True(t, r.Success)
		assert.Nil(t, r.Error)
		assert.Equal(t, naverURL, gotURL)
		assert.Equal(t, opts, gotOpts)
		assert.Equal(t, 5, r.Data.Metadata.ContentLength)
		assert.GreaterOrEqual(t, r.Data.Metadata.ProcessingTime, time.Duration(0))
		assert.Equal(t, r.ProcessingTime, r.Data.Metadata.ProcessingTime)
		assert.Equal(t, gleaner.StateSuccess, gleaner.ResultState(r))
	})

	t.Run("keeps typed extractor errors", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
			return nil, gleaner.Errorf(gleaner.ENOSUBTITLES, "no caption tracks")
		}))

		r := svc.Extract(context.Background(), youtubeURL, gleaner.Options{})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.ENOSUBTITLES, r.Error.Code)
		assert.Nil(t, r.Data)
		assert.Equal(t, gleaner.StateFailure, gleaner.ResultState(r))
	})

	t.Run("converts unknown errors", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
			return nil, errors.New("unexpected")
		}))

		r := svc.Extract(context.Background(), youtubeURL, gleaner.Options{})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EEXTRACTION, r.Error.Code)
		assert.Contains(t, r.Error.Details, "unexpected")
	})

	t.Run("recovers from extractor panic", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
			panic("boom")
		}))

		var r gleaner.ExtractionResult
		require.NotPanics(t, func() {
			r = svc.Extract(context.Background(), youtubeURL, gleaner.Options{})
		})

		assert.False(t, r.Success)
		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EEXTRACTION, r.Error.Code)
	})

	t.Run("reports nil content as failure", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
			return nil, nil
		}))

		r := svc.Extract(context.Background(), youtubeURL, gleaner.Options{})

		assert.False(t, r.Success)
		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.EEXTRACTION, r.Error.Code)
	})

	t.Run("applies cumulative timeout", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(ctx context.Context, _ string, _ gleaner.Options) (*gleaner.ExtractedContent, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

		start := time.Now()
		r := svc.Extract(context.Background(), youtubeURL, gleaner.Options{Timeout: 20 * time.Millisecond})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.ETIMEOUT, r.Error.Code)
		assert.True(t, r.Error.Retryable)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("reports caller cancellation as timeout", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(ctx context.Context, _ string, _ gleaner.Options) (*gleaner.ExtractedContent, error) {
			return nil, ctx.Err()
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := svc.Extract(ctx, youtubeURL, gleaner.Options{})

		require.NotNil(t, r.Error)
		assert.Equal(t, gleaner.ETIMEOUT, r.Error.Code)
	})

	t.Run("envelope is exclusive", func(t *testing.T) {
		t.Parallel()

		svc := gleaner.NewService(newExtractor(gleaner.PlatformYouTube, func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
			return &gleaner.ExtractedContent{ID: "id", SourceType: gleaner.PlatformYouTube}, nil
		}))

		for _, raw := range []string{youtubeURL, naverURL, "not a url", "https://youtu.be/bad"} {
			r := svc.Extract(context.Background(), raw, gleaner.Options{})
			assert.NotEqual(t, r.Data == nil, r.Error == nil, raw)
			assert.Equal(t, r.Success, r.Data != nil, raw)
		}
	})
}

func TestService_Validate(t *testing.T) {
	t.Parallel()

	svc := gleaner.NewService(failingExtractor(t, gleaner.PlatformYouTube))

	t.Run("valid registered platform", func(t *testing.T) {
		t.Parallel()

		v := svc.Validate("https://youtu.be/dQw4w9WgXcQ")

		assert.True(t, v.Valid)
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", v.NormalizedURL)
	})

	t.Run("unregistered platform is unsupported", func(t *testing.T) {
		t.Parallel()

		v := svc.Validate(naverURL)

		assert.False(t, v.Valid)
		assert.Equal(t, gleaner.PlatformNaver, v.Type)
		assert.Equal(t, gleaner.DefaultMessage(gleaner.EUNSUPPORTEDPLATFORM), v.Reason)
	})
}

func TestResultState(t *testing.T) {
	t.Parallel()

	tests := map[string]gleaner.State{
		gleaner.EINVALIDURL:          gleaner.StateRejected,
		gleaner.EUNSUPPORTEDPLATFORM: gleaner.StateRejected,
		gleaner.ENOTFOUND:            gleaner.StateFailure,
		gleaner.ETIMEOUT:             gleaner.StateFailure,
	}

	for code, want := range tests {
		r := gleaner.NewFailureResult(gleaner.NewError(code, ""), 0)
		assert.Equal(t, want, gleaner.ResultState(r), code)
	}
}
