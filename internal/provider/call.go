package provider

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

// Caller runs outbound provider requests under a shared rate limit, a
// per-request timeout and a retry policy for rate limit rejections.
type Caller struct {
	Provider string
	Limiter  *RateLimiter
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration // caps upstream RetryAfter hints when set
	Logger   logrus.FieldLogger
}

// NewCaller returns a Caller with the defaults providers use when nothing is
// configured.
func NewCaller(providerName string) *Caller {
	return &Caller{
		Provider: providerName,
		Limiter:  NewRateLimiter(38, 10*time.Second),
		Timeout:  10 * time.Second,
		Attempts: 3,
		Delay:    time.Second,
		Logger:   logrus.StandardLogger(),
	}
}

type callResult[T any] struct {
	value T
	err   error
}

// Call invokes fn. Client libraries without context support still run under
// the caller's timeout: fn executes on its own goroutine and a result arriving
// after the deadline is dropped.
func Call[T any](ctx context.Context, c *Caller, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}

	return retry.DoWithData(
		func() (T, error) {
			return callOnce(ctx, c, fn)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.Delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRateLimited),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			wait := retry.BackOffDelay(n, err, config)
			if hint := RetryAfter(err); hint > 0 {
				wait = time.Duration(hint) * time.Second
			}
			if c.MaxDelay > 0 && wait > c.MaxDelay {
				wait = c.MaxDelay
			}
			return wait
		}),
		retry.OnRetry(func(n uint, err error) {
			if c.Logger != nil {
				c.Logger.WithFields(logrus.Fields{
					"provider": c.Provider,
					"op":       op,
					"attempt":  n + 1,
				}).WithError(err).Debug("retrying rate limited request")
			}
		}),
	)
}

func callOnce[T any](ctx context.Context, c *Caller, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := c.Limiter.Wait(ctx); err != nil {
		return zero, err
	}

	callCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	done := make(chan callResult[T], 1)
	go func() {
		value, err := fn(callCtx)
		done <- callResult[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, TimeoutError(c.Provider, res.err)
		}
		return res.value, res.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, TimeoutError(c.Provider, callCtx.Err())
	}
}
