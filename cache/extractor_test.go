package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/cache"
	"github.com/fwojciec/gleaner/gocache"
	"github.com/fwojciec/gleaner/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	shortURL = "https://youtu.be/dQw4w9WgXcQ"
	postURL  = "https://blog.naver.com/ranto28/224023632772"
)

// countingExtractor returns fresh YouTube content and counts its calls.
func countingExtractor(calls *atomic.Int32) *mock.ContentExtractor {
	return &mock.ContentExtractor{
		PlatformFn: func() gleaner.Platform { return gleaner.PlatformYouTube },
		ValidateFn: gleaner.Classify,
		ExtractFn: func(_ context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
			calls.Add(1)
			c := &gleaner.ExtractedContent{
				ID:         uuid.NewString(),
				SourceURL:  rawURL,
				SourceType: gleaner.PlatformYouTube,
				Title:      "제목",
				Metadata: gleaner.ContentMetadata{
					YouTube: &gleaner.YouTubeMetadata{
						VideoID:       "dQw4w9WgXcQ",
						HasTimestamps: opts.IncludeTimestamps,
					},
				},
			}
			c.SetContent("자막")
			return c, nil
		},
	}
}

func newStore() *gocache.Store {
	return gocache.NewStore(time.Minute, time.Minute)
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("serves repeated requests from the store", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		e := cache.NewExtractor(countingExtractor(&calls), newStore(), time.Minute)

		first, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)
		second, err := e.Extract(context.Background(), shortURL, gleaner.Options{})
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, shortURL, second.SourceURL)
		assert.Equal(t, first.Content, second.Content)
		assert.Equal(t, first.Metadata, second.Metadata)
	})

	t.Run("hits are independent copies", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		e := cache.NewExtractor(countingExtractor(&calls), newStore(), time.Minute)

		first, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)
		first.Title = "changed"
		first.Metadata.YouTube.VideoID = "changed"

		second, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)

		assert.Equal(t, "제목", second.Title)
		assert.Equal(t, "dQw4w9WgXcQ", second.Metadata.YouTube.VideoID)
	})

	t.Run("keys on options that change output", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		e := cache.NewExtractor(countingExtractor(&calls), newStore(), time.Minute)

		plain, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)
		stamped, err := e.Extract(context.Background(), watchURL, gleaner.Options{IncludeTimestamps: true})
		require.NoError(t, err)
		_, err = e.Extract(context.Background(), watchURL, gleaner.Options{Timeout: time.Second})
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
		assert.False(t, plain.Metadata.YouTube.HasTimestamps)
		assert.True(t, stamped.Metadata.YouTube.HasTimestamps)
	})

	t.Run("does not cache failures", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		inner := countingExtractor(&calls)
		succeed := inner.ExtractFn
		inner.ExtractFn = func(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
			if calls.Load() == 0 {
				calls.Add(1)
				return nil, gleaner.Errorf(gleaner.ENETWORK, "connection reset")
			}
			return succeed(ctx, rawURL, opts)
		}
		e := cache.NewExtractor(inner, newStore(), time.Minute)

		_, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		assert.Equal(t, gleaner.ENETWORK, gleaner.ErrorCode(err))

		got, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)
		assert.Equal(t, "자막", got.Content)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("passes invalid URLs through uncached", func(t *testing.T) {
		t.Parallel()

		store := &mock.ResultCache{
			GetFn: func(context.Context, string) (*gleaner.ExtractedContent, error) {
				t.Error("unexpected store read")
				return nil, nil
			},
			SetFn: func(context.Context, string, *gleaner.ExtractedContent, time.Duration) error {
				t.Error("unexpected store write")
				return nil
			},
		}
		inner := &mock.ContentExtractor{
			ExtractFn: func(context.Context, string, gleaner.Options) (*gleaner.ExtractedContent, error) {
				return nil, gleaner.Errorf(gleaner.EINVALIDURL, "bad")
			},
		}
		e := cache.NewExtractor(inner, store, time.Minute)

		_, err := e.Extract(context.Background(), "https://www.youtube.com/watch?v=short", gleaner.Options{})

		assert.Equal(t, gleaner.EINVALIDURL, gleaner.ErrorCode(err))
	})

	t.Run("tolerates store failures", func(t *testing.T) {
		t.Parallel()

		var ttl time.Duration
		store := &mock.ResultCache{
			GetFn: func(context.Context, string) (*gleaner.ExtractedContent, error) {
				return nil, errors.New("disk full")
			},
			SetFn: func(_ context.Context, _ string, _ *gleaner.ExtractedContent, got time.Duration) error {
				ttl = got
				return errors.New("disk full")
			},
		}
		var calls atomic.Int32
		e := cache.NewExtractor(countingExtractor(&calls), store, 0)

		got, err := e.Extract(context.Background(), watchURL, gleaner.Options{})

		require.NoError(t, err)
		assert.Equal(t, "자막", got.Content)
		assert.Equal(t, cache.DefaultTTL, ttl)
	})

	t.Run("concurrent misses share one extraction", func(t *testing.T) {
		t.Parallel()

		const n = 8
		var calls, gets atomic.Int32
		release := make(chan struct{})
		inner := countingExtractor(&calls)
		extract := inner.ExtractFn
		inner.ExtractFn = func(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
			<-release
			return extract(ctx, rawURL, opts)
		}
		backing := newStore()
		store := &mock.ResultCache{
			GetFn: func(ctx context.Context, key string) (*gleaner.ExtractedContent, error) {
				gets.Add(1)
				return backing.Get(ctx, key)
			},
			SetFn: backing.Set,
		}
		e := cache.NewExtractor(inner, store, time.Minute)

		var wg sync.WaitGroup
		ids := make([]string, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
				if assert.NoError(t, err) {
					ids[i] = got.ID
				}
			}()
		}
		require.Eventually(t, func() bool { return gets.Load() == n }, time.Second, time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		seen := make(map[string]bool)
		for _, id := range ids {
			assert.NotEmpty(t, id)
			assert.False(t, seen[id], "duplicate ID %s", id)
			seen[id] = true
		}
	})
}

func TestExtractor_Extract_Waiting(t *testing.T) {
	t.Parallel()

	// blockingExtractor starts extractions that finish when release is
	// closed or their context ends.
	blockingExtractor := func(calls *atomic.Int32, started chan<- struct{}, release <-chan struct{}) *mock.ContentExtractor {
		inner := countingExtractor(calls)
		extract := inner.ExtractFn
		inner.ExtractFn = func(ctx context.Context, rawURL string, opts gleaner.Options) (*gleaner.ExtractedContent, error) {
			close(started)
			select {
			case <-release:
				return extract(ctx, rawURL, opts)
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return inner
	}

	t.Run("waiter gives up at its own deadline", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		started, release := make(chan struct{}), make(chan struct{})
		e := cache.NewExtractor(blockingExtractor(&calls, started, release), newStore(), time.Minute)

		leader := make(chan error, 1)
		go func() {
			_, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
			leader <- err
		}()
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		begin := time.Now()
		got, err := e.Extract(ctx, watchURL, gleaner.Options{})

		assert.Nil(t, got)
		assert.Equal(t, gleaner.ETIMEOUT, gleaner.ErrorCode(err))
		assert.Less(t, time.Since(begin), 500*time.Millisecond)

		close(release)
		require.NoError(t, <-leader)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("cancelled caller does not fail others", func(t *testing.T) {
		t.Parallel()

		var calls, gets atomic.Int32
		started, release := make(chan struct{}), make(chan struct{})
		backing := newStore()
		store := &mock.ResultCache{
			GetFn: func(ctx context.Context, key string) (*gleaner.ExtractedContent, error) {
				gets.Add(1)
				return backing.Get(ctx, key)
			},
			SetFn: backing.Set,
		}
		e := cache.NewExtractor(blockingExtractor(&calls, started, release), store, time.Minute)

		leaderCtx, cancelLeader := context.WithCancel(context.Background())
		leader := make(chan error, 1)
		go func() {
			_, err := e.Extract(leaderCtx, watchURL, gleaner.Options{})
			leader <- err
		}()
		<-started

		type outcome struct {
			content *gleaner.ExtractedContent
			err     error
		}
		follower := make(chan outcome, 1)
		go func() {
			c, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
			follower <- outcome{c, err}
		}()
		require.Eventually(t, func() bool { return gets.Load() == 2 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		cancelLeader()
		assert.Equal(t, gleaner.ETIMEOUT, gleaner.ErrorCode(<-leader))

		close(release)
		got := <-follower
		require.NoError(t, got.err)
		require.NotNil(t, got.content)
		assert.Equal(t, "자막", got.content.Content)

		// The shared extraction completed and was stored.
		_, err := e.Extract(context.Background(), watchURL, gleaner.Options{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestKey(t *testing.T) {
	t.Parallel()

	watch := gleaner.Classify(watchURL)
	short := gleaner.Classify(shortURL)
	post := gleaner.Classify(postURL)

	assert.Equal(t, cache.Key(watch, gleaner.Options{}), cache.Key(short, gleaner.Options{}))
	assert.Equal(t, cache.Key(watch, gleaner.Options{Language: "KO"}), cache.Key(watch, gleaner.Options{Language: "ko"}))
	assert.NotEqual(t, cache.Key(watch, gleaner.Options{Language: "en"}), cache.Key(watch, gleaner.Options{Language: "ko"}))
	assert.Equal(t, cache.Key(watch, gleaner.Options{}), cache.Key(watch, gleaner.Options{Format: gleaner.FormatMarkdown}))

	assert.Equal(t, cache.Key(post, gleaner.Options{}), cache.Key(post, gleaner.Options{Format: "plain"}))
	assert.NotEqual(t, cache.Key(post, gleaner.Options{}), cache.Key(post, gleaner.Options{Format: gleaner.FormatMarkdown}))
	assert.Equal(t, cache.Key(post, gleaner.Options{}), cache.Key(post, gleaner.Options{Language: "en", IncludeTimestamps: true}))

	assert.Regexp(t, `^youtube:dQw4w9WgXcQ:[0-9a-f]{16}$`, cache.Key(watch, gleaner.Options{}))
	assert.Regexp(t, `^naver:ranto28/224023632772:[0-9a-f]{16}$`, cache.Key(post, gleaner.Options{}))
}
