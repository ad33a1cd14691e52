package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/gleaner"
)

// Ensure LoggingService implements gleaner.ExtractionService.
var _ gleaner.ExtractionService = (*LoggingService)(nil)

// LoggingService logs the terminal state of every extraction request.
type LoggingService struct {
	next   gleaner.ExtractionService
	logger *slog.Logger
}

// NewLoggingService creates a new LoggingService.
func NewLoggingService(next gleaner.ExtractionService, logger *slog.Logger) *LoggingService {
	return &LoggingService{next: next, logger: logger}
}

// Extract delegates to the wrapped service and logs the outcome. Failures
// log at warn level, everything else at info.
func (s *LoggingService) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (result gleaner.ExtractionResult) {
	defer func() {
		state := gleaner.ResultState(result)
		attrs := []any{
			"url", rawURL,
			"state", state,
			"duration", result.ProcessingTime,
		}
		level := slog.LevelInfo
		switch {
		case result.Data != nil:
			attrs = append(attrs,
				"platform", result.Data.SourceType,
				"method", result.Data.Metadata.ExtractionMethod,
				"chars", result.Data.Metadata.ContentLength,
			)
		case result.Error != nil:
			attrs = append(attrs,
				"code", result.Error.Code,
				"retryable", result.Error.Retryable,
				"err", result.Error.Details,
			)
			if state == gleaner.StateFailure {
				level = slog.LevelWarn
			}
		}
		s.logger.Log(ctx, level, "extract", attrs...)
	}()
	return s.next.Extract(ctx, rawURL, opts)
}

// Validate delegates to the wrapped service.
func (s *LoggingService) Validate(rawURL string) gleaner.Validation {
	return s.next.Validate(rawURL)
}
