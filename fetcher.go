package gleaner

import (
	"context"
	"errors"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// Response is a successful (2xx) HTTP response.
type Response struct {
	StatusCode int
	URL        string
	Body       []byte
}

// Fetcher performs outbound requests.
//
// Failures are *Error values: transport problems are ENETWORK or ETIMEOUT,
// non-2xx statuses map through StatusErrorCode.
type Fetcher interface {
	// Fetch performs req. The context controls timeout and cancellation.
	Fetch(ctx context.Context, req *Request) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// StatusErrorCode maps a non-2xx HTTP status code to an error code.
func StatusErrorCode(status int) string {
	switch {
	case status == 401:
		return EACCESSDENIED
	case status == 403 || status == 429:
		return ERATELIMITED
	case status == 404 || status == 410:
		return ENOTFOUND
	case status == 408 || status == 504:
		return ETIMEOUT
	case status == 413:
		return ETOOLARGE
	case status >= 500:
		return ENETWORK
	default:
		return EEXTRACTION
	}
}

// FetchError normalizes a failure returned by a Fetcher. Application errors
// pass through, context expiry becomes ETIMEOUT and anything else is
// reported as ENETWORK.
func FetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Errorf(ETIMEOUT, "%s: %v", op, err)
	}
	return Errorf(ENETWORK, "%s: %v", op, err)
}
