package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	// Verify mock can be used where ContentWriter is expected
	var _ gleaner.ContentWriter = &mock.ContentWriter{}
}

func TestContentWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("delegates to WriteFn", func(t *testing.T) {
		t.Parallel()

		var calledWith *gleaner.ExtractedContent
		w := &mock.ContentWriter{
			WriteFn: func(_ context.Context, content *gleaner.ExtractedContent) (string, error) {
				calledWith = content
				return "/tmp/out.md", nil
			},
		}

		content := &gleaner.ExtractedContent{
			ID:         "id-1",
			SourceURL:  "https://blog.naver.com/ranto28/224023632772",
			SourceType: gleaner.PlatformNaver,
			Title:      "Test Post",
			Content:    "Test content",
		}

		path, err := w.Write(context.Background(), content)

		require.NoError(t, err)
		assert.Equal(t, "/tmp/out.md", path)
		assert.Same(t, content, calledWith)
	})

	t.Run("returns error from WriteFn", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("disk full")
		w := &mock.ContentWriter{
			WriteFn: func(_ context.Context, _ *gleaner.ExtractedContent) (string, error) {
				return "", expectedErr
			},
		}

		_, err := w.Write(context.Background(), &gleaner.ExtractedContent{})

		assert.ErrorIs(t, err, expectedErr)
	})
}
