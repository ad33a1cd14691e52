package gleaner

import (
	"errors"
	"fmt"
)

// Error codes. The set is closed; adapters never invent new codes.
const (
	EINVALIDURL          = "INVALID_URL"
	EUNSUPPORTEDPLATFORM = "UNSUPPORTED_PLATFORM"
	ENOTFOUND            = "CONTENT_NOT_FOUND"
	ENOSUBTITLES         = "NO_SUBTITLES"
	EEXTRACTION          = "EXTRACTION_FAILED"
	ETIMEOUT             = "TIMEOUT"
	ERATELIMITED         = "RATE_LIMITED"
	ENETWORK             = "NETWORK_ERROR"
	EACCESSDENIED        = "ACCESS_DENIED"
	ETOOLARGE            = "CONTENT_TOO_LARGE"
)

// ErrorCodes lists every error code in a stable order.
var ErrorCodes = []string{
	EINVALIDURL,
	EUNSUPPORTEDPLATFORM,
	ENOTFOUND,
	ENOSUBTITLES,
	EEXTRACTION,
	ETIMEOUT,
	ERATELIMITED,
	ENETWORK,
	EACCESSDENIED,
	ETOOLARGE,
}

var defaultMessages = map[string]string{
	EINVALIDURL:          "올바르지 않은 URL입니다",
	EUNSUPPORTEDPLATFORM: "지원하지 않는 플랫폼입니다",
	ENOTFOUND:            "콘텐츠를 찾을 수 없습니다",
	ENOSUBTITLES:         "이 동영상에는 자막이 없습니다",
	EEXTRACTION:          "콘텐츠 추출에 실패했습니다",
	ETIMEOUT:             "요청 시간이 초과되었습니다",
	ERATELIMITED:         "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요",
	ENETWORK:             "네트워크 오류가 발생했습니다",
	EACCESSDENIED:        "접근 권한이 없습니다",
	ETOOLARGE:            "콘텐츠가 너무 큽니다",
}

// Error represents an extraction failure.
//
// Message is a short user-facing string. Details carries technical context
// for logs and is never meant to be shown to end users.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// Error implements the error interface. The string carries the code, message
// and details, and is what logs and wrapped errors show.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("gleaner error: code=%s message=%s details=%s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("gleaner error: code=%s message=%s", e.Code, e.Message)
}

// NewError returns an Error for code with the default localized message.
// Unknown codes collapse to EEXTRACTION.
func NewError(code, details string) *Error {
	if _, ok := defaultMessages[code]; !ok {
		code = EEXTRACTION
	}
	return &Error{
		Code:      code,
		Message:   DefaultMessage(code),
		Details:   details,
		Retryable: Retryable(code),
	}
}

// Errorf is a helper function to return an Error with a given code and
// formatted details.
func Errorf(code string, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Retryable reports whether a failure with code may succeed if repeated
// later without caller intervention. It depends on code alone.
func Retryable(code string) bool {
	switch code {
	case ETIMEOUT, ERATELIMITED, ENETWORK:
		return true
	default:
		return false
	}
}

// DefaultMessage returns the user-facing message for code.
func DefaultMessage(code string) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return defaultMessages[EEXTRACTION]
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EEXTRACTION.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EEXTRACTION
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return the EEXTRACTION message.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return DefaultMessage(EEXTRACTION)
}

// AsError converts any error into an application error. Application errors
// found in the chain are returned as-is; anything else becomes EEXTRACTION
// with the original error text as details.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(EEXTRACTION, err.Error())
}
