package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/gleaner"
)

// Ensure LoggingExtractor implements gleaner.ContentExtractor.
var _ gleaner.ContentExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a ContentExtractor with logging.
type LoggingExtractor struct {
	next   gleaner.ContentExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next gleaner.ContentExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

func (e *LoggingExtractor) Platform() gleaner.Platform {
	return e.next.Platform()
}

func (e *LoggingExtractor) Validate(rawURL string) gleaner.ParsedURL {
	return e.next.Validate(rawURL)
}

// Extract logs the platform extraction and delegates to the wrapped extractor.
func (e *LoggingExtractor) Extract(ctx context.Context, rawURL string, opts gleaner.Options) (content *gleaner.ExtractedContent, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"platform", e.next.Platform(),
			"url", rawURL,
			"duration", time.Since(begin),
		}
		if content != nil {
			attrs = append(attrs,
				"method", content.Metadata.ExtractionMethod,
				"chars", content.Metadata.ContentLength,
			)
		}
		if err != nil {
			attrs = append(attrs, "code", gleaner.ErrorCode(err), "err", err)
		}
		e.logger.DebugContext(ctx, "platform extract", attrs...)
	}(time.Now())
	return e.next.Extract(ctx, rawURL, opts)
}
