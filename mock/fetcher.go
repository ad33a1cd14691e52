package mock

import (
	"context"

	"github.com/fwojciec/gleaner"
)

var _ gleaner.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of gleaner.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, req *gleaner.Request) (*gleaner.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, req *gleaner.Request) (*gleaner.Response, error) {
	return f.FetchFn(ctx, req)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
