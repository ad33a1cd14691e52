package gleaner

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExtractionService is the public entry point used by the CLI and HTTP API.
type ExtractionService interface {
	// Extract never panics and never returns a malformed envelope.
	Extract(ctx context.Context, rawURL string, opts Options) ExtractionResult

	// Validate classifies rawURL without touching the network.
	Validate(rawURL string) Validation
}

// State is a terminal state of one extraction request.
type State string

// Terminal states.
const (
	StateSuccess  State = "success"
	StateFailure  State = "failure"
	StateRejected State = "rejected"
)

// ResultState returns the terminal state that produced r. Requests refused
// before dispatch (invalid or unsupported URLs) are rejected.
func ResultState(r ExtractionResult) State {
	switch {
	case r.Success:
		return StateSuccess
	case r.Error != nil && (r.Error.Code == EINVALIDURL || r.Error.Code == EUNSUPPORTEDPLATFORM):
		return StateRejected
	default:
		return StateFailure
	}
}

// Ensure Service implements ExtractionService at compile time.
var _ ExtractionService = (*Service)(nil)

// Service classifies URLs and dispatches them to platform extractors.
// Service holds no per-request state and is safe for concurrent use once
// all extractors are registered.
type Service struct {
	extractors map[Platform]ContentExtractor
}

// NewService creates a Service dispatching to the given extractors.
// A later extractor for the same platform replaces an earlier one.
func NewService(extractors ...ContentExtractor) *Service {
	s := &Service{extractors: make(map[Platform]ContentExtractor)}
	for _, e := range extractors {
		s.extractors[e.Platform()] = e
	}
	return s
}

// Validate classifies rawURL. Unknown platforms and platforms without a
// registered extractor are reported as unsupported.
func (s *Service) Validate(rawURL string) Validation {
	v := Validate(rawURL)
	if v.Type != PlatformUnknown {
		if _, ok := s.extractors[v.Type]; !ok {
			return Validation{Type: v.Type, Reason: DefaultMessage(EUNSUPPORTEDPLATFORM)}
		}
	}
	return v
}

// Extract classifies rawURL, runs the matching extractor and wraps the
// outcome. The service performs no retries; Error.Retryable is advisory.
func (s *Service) Extract(ctx context.Context, rawURL string, opts Options) (result ExtractionResult) {
	begin := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = NewFailureResult(Errorf(EEXTRACTION, "extractor panic: %v", r), time.Since(begin))
		}
	}()

	parsed := Classify(rawURL)
	if parsed.Platform == PlatformUnknown {
		return NewFailureResult(Errorf(EUNSUPPORTEDPLATFORM, "unsupported URL %q", rawURL), time.Since(begin))
	}
	if !parsed.IsValid {
		return NewFailureResult(Errorf(EINVALIDURL, "no valid %s identifier in %q", parsed.Platform, rawURL), time.Since(begin))
	}

	extractor, ok := s.extractors[parsed.Platform]
	if !ok {
		return NewFailureResult(Errorf(EUNSUPPORTEDPLATFORM, "no extractor registered for %s", parsed.Platform), time.Since(begin))
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	content, err := extractor.Extract(ctx, rawURL, opts)
	elapsed := time.Since(begin)
	if err != nil {
		return NewFailureResult(contextError(ctx, err), elapsed)
	}
	if content == nil {
		return NewFailureResult(Errorf(EEXTRACTION, "%s extractor returned no content", parsed.Platform), elapsed)
	}

	content.Metadata.ProcessingTime = elapsed
	content.SetContent(content.Content)
	return NewSuccessResult(content, elapsed)
}

// contextError reports untyped failures caused by an expired or cancelled
// context as timeouts.
func contextError(ctx context.Context, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Errorf(ETIMEOUT, "%v", err)
	}
	return fmt.Errorf("extract: %w", err)
}
