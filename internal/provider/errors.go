package provider

import (
	"context"
	"errors"
	"fmt"
)

// Error codes carried by ProviderError
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeTimeout        = "TIMEOUT"
	CodeUnknown        = "UNKNOWN"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
}

func (e *ProviderError) Error() string {
	return e.Message
}

// NotFound builds the error providers return for unknown ids.
func NotFound(providerName, format string, args ...interface{}) error {
	return &ProviderError{
		Provider: providerName,
		Code:     CodeNotFound,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsNotFound reports whether err, or any error it wraps, is a NOT_FOUND
// provider error.
func IsNotFound(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Code == CodeNotFound
}

// IsRateLimited reports whether err is a provider rate limit rejection.
func IsRateLimited(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Code == CodeRateLimited
}

// RetryAfter returns the wait hint attached to a provider error, if any.
func RetryAfter(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RetryAfter
	}
	return 0
}

// TimeoutError converts a context failure into a provider error so callers
// treat it like any other upstream failure.
func TimeoutError(providerName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{
			Provider: providerName,
			Code:     CodeTimeout,
			Message:  providerName + " request timed out",
		}
	}
	return err
}
