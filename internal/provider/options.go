package provider

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Configuration keys understood by every provider in addition to its own.
const (
	OptionTimeout           = "timeout"
	OptionRateLimitRequests = "rate_limit_requests"
	OptionRateLimitWindow   = "rate_limit_window"
	OptionRetryAttempts     = "retry_attempts"
	OptionRetryDelay        = "retry_delay"
	OptionLogger            = "logger"
)

// CallerSchemaFields describes the shared outbound call settings.
func CallerSchemaFields() []ConfigField {
	return []ConfigField{
		{
			Name:        OptionTimeout,
			DisplayName: "Request Timeout",
			Type:        ConfigFieldTypeDuration,
			Default:     10 * time.Second,
			Description: "Maximum time to wait for a single upstream request",
		},
		{
			Name:        OptionRateLimitRequests,
			DisplayName: "Rate Limit Requests",
			Type:        ConfigFieldTypeInt,
			Default:     38,
			Description: "Requests allowed per rate limit window (0 disables limiting)",
		},
		{
			Name:        OptionRateLimitWindow,
			DisplayName: "Rate Limit Window",
			Type:        ConfigFieldTypeDuration,
			Default:     10 * time.Second,
			Description: "Sliding window used by the rate limiter",
		},
		{
			Name:        OptionRetryAttempts,
			DisplayName: "Retry Attempts",
			Type:        ConfigFieldTypeInt,
			Default:     3,
			Description: "Attempts made when the upstream reports a rate limit",
		},
	}
}

// ApplyCallerConfig builds a Caller for providerName from a provider
// configuration map, falling back to defaults for absent keys.
func ApplyCallerConfig(providerName string, config map[string]interface{}) *Caller {
	caller := NewCaller(providerName)

	if timeout, ok := config[OptionTimeout].(time.Duration); ok && timeout > 0 {
		caller.Timeout = timeout
	}

	requests, window := 38, 10*time.Second
	if v, ok := config[OptionRateLimitRequests].(int); ok {
		requests = v
	}
	if v, ok := config[OptionRateLimitWindow].(time.Duration); ok && v > 0 {
		window = v
	}
	caller.Limiter = NewRateLimiter(requests, window)

	if v, ok := config[OptionRetryAttempts].(int); ok && v > 0 {
		caller.Attempts = uint(v)
	}
	if v, ok := config[OptionRetryDelay].(time.Duration); ok && v > 0 {
		caller.Delay = v
	}
	if logger, ok := config[OptionLogger].(logrus.FieldLogger); ok && logger != nil {
		caller.Logger = logger
	}

	return caller
}
