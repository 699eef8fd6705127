package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a simple sliding window rate limiter shared by all
// outbound calls of one provider
type RateLimiter struct {
	mu          sync.Mutex
	requests    []time.Time
	maxRequests int
	window      time.Duration
}

// NewRateLimiter creates a new rate limiter. A non-positive maxRequests
// disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests < 0 {
		maxRequests = 0
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Wait blocks until a request can be made within rate limits or the context
// is done, in which case the context error is returned
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.maxRequests == 0 {
		return ctx.Err()
	}

	for {
		delay, ok := r.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a request when the window has room, otherwise it returns
// how long until the oldest request leaves the window
func (r *RateLimiter) reserve() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	// Clean up old requests outside the window
	cutoff := now.Add(-r.window)
	valid := r.requests[:0]
	for _, req := range r.requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	r.requests = valid

	if len(r.requests) < r.maxRequests {
		r.requests = append(r.requests, now)
		return 0, true
	}

	// Add a small buffer to ensure the request has actually expired
	return r.window - now.Sub(r.requests[0]) + 10*time.Millisecond, false
}
