package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fwojciec/gleaner"
)

// maxRetryInterval caps the delay between retried extractions.
const maxRetryInterval = 30 * time.Second

// errRetryable marks an attempt whose failure is worth repeating.
type errRetryable struct{ code string }

func (e errRetryable) Error() string { return e.code }

// ExtractWithRetry runs svc.Extract and repeats it up to retries times while
// the result fails with a retryable error. Delays grow exponentially from
// initial. It returns the last result.
func ExtractWithRetry(ctx context.Context, svc gleaner.ExtractionService, rawURL string, opts gleaner.Options, retries uint64, initial time.Duration) gleaner.ExtractionResult {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0

	var result gleaner.ExtractionResult
	op := func() error {
		result = svc.Extract(ctx, rawURL, opts)
		if result.Success || result.Error == nil || !result.Error.Retryable {
			return nil
		}
		return errRetryable{code: result.Error.Code}
	}

	_ = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
	return result
}
