package mock

import (
	"context"

	"github.com/fwojciec/gleaner"
)

var _ gleaner.ContentWriter = (*ContentWriter)(nil)

// ContentWriter is a mock implementation of gleaner.ContentWriter.
type ContentWriter struct {
	WriteFn func(ctx context.Context, content *gleaner.ExtractedContent) (string, error)
}

func (w *ContentWriter) Write(ctx context.Context, content *gleaner.ExtractedContent) (string, error) {
	return w.WriteFn(ctx, content)
}
