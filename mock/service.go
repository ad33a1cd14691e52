package mock

import (
	"context"

	"github.com/fwojciec/gleaner"
)

var _ gleaner.ExtractionService = (*ExtractionService)(nil)

// ExtractionService is a mock implementation of gleaner.ExtractionService.
type ExtractionService struct {
	ExtractFn  func(ctx context.Context, rawURL string, opts gleaner.Options) gleaner.ExtractionResult
	ValidateFn func(rawURL string) gleaner.Validation
}

func (s *ExtractionService) Extract(ctx context.Context, rawURL string, opts gleaner.Options) gleaner.ExtractionResult {
	return s.ExtractFn(ctx, rawURL, opts)
}

func (s *ExtractionService) Validate(rawURL string) gleaner.Validation {
	return s.ValidateFn(rawURL)
}
