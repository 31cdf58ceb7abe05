// Package retrylimit provides adaptive rate limiting and bounded retry for
// resilient clients. Works with any error types while providing special
// handling for HTTP-related errors.
//
// Example usage:
//
//	lim := retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5)
//	if err := lim.Wait(ctx); err != nil {
//	    return err
//	}
//	err := doRequest()
//	lim.Observe(err)
//
//	res := retrylimit.Attempt(ctx, retrylimit.Fixed(3, 10*time.Second), func(ctx context.Context, n int) error {
//	    return login(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// Limiter
// =============================================================================

// AdaptiveLimiter manages a rate limit that adjusts automatically based
// on the outcome of requests. It increases on success and decreases on
// errors. Thread-safe and works with any error types.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter creates an AdaptiveLimiter with the given configuration.
//
// Parameters:
//   - initial: starting requests per second
//   - min: minimum allowed rate
//   - max: maximum allowed rate
//   - stepUp: increment on success
//   - stepDown: multiplier applied on failure (e.g., 0.5 to halve)
func NewAdaptiveLimiter(initial, min, max rate.Limit, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial <= 0 {
		initial = 1
	}
	if min <= 0 {
		min = initial
	}
	if max < min {
		max = min
	}
	burst := maxInt(1, int(initial))
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burst),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or the context is canceled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.limiter.Wait(ctx)
}

// Success increases the rate after a successful request.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > 10*time.Second {
		a.adjustLimit(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited reduces the rate after a failure or server response indicating overload.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	newLimit := rate.Limit(float64(a.limiter.Limit()) * a.stepDown)
	a.adjustLimit(newLimit)
}

// Observe feeds a request outcome back into the limiter. Only errors matching
// DefaultClassifier slow it down.
func (a *AdaptiveLimiter) Observe(err error) {
	switch {
	case err == nil:
		a.Success()
	case DefaultClassifier(err):
		a.RateLimited()
	}
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

// adjustLimit sets the limiter to a new rate, respecting min/max boundaries.
func (a *AdaptiveLimiter) adjustLimit(newLimit rate.Limit) {
	oldLimit := a.limiter.Limit()

	if newLimit > a.maxLimit {
		newLimit = a.maxLimit
	} else if newLimit < a.minLimit {
		newLimit = a.minLimit
	}

	if newLimit != oldLimit {
		a.limiter.SetLimit(newLimit)
		a.limiter.SetBurst(maxInt(1, int(newLimit)))
	}
}

// =============================================================================
// Errors
// =============================================================================

// HTTPError interface for errors that carry HTTP status codes.
// Optional interface - errors don't need to implement this for basic retry.
type HTTPError interface {
	error
	StatusCode() int
}

// FatalError wraps errors that should stop retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// DefaultClassifier provides HTTP-aware error classification.
// Returns true for 429 (rate limit) and 5xx (server errors).
func DefaultClassifier(err error) bool {
	return isRateLimitError(err) || isServerError(err)
}

// =============================================================================
// Attempts
// =============================================================================

// Outcome tags how a bounded run of attempts ended.
type Outcome int

const (
	// NotAttempted means fn was never called (e.g. the context was already done).
	NotAttempted Outcome = iota
	// Succeeded means some attempt returned nil.
	Succeeded
	// Exhausted means every allowed attempt failed, or a FatalError stopped the run.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	}
	return "not_attempted"
}

// Result is the tagged result of Attempt.
type Result struct {
	Outcome  Outcome
	Attempts int
	Err      error // last error, nil on success
}

// Policy configures Attempt.
type Policy struct {
	MaxAttempts int           // Maximum number of attempts (must be >= 1)
	Delay       time.Duration // Wait between attempts

	// OnRetry is called after a failed attempt that will be followed by another.
	OnRetry func(attempt int, err error, wait time.Duration)
	// Sleep waits between attempts. nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fixed returns a policy with a constant delay between attempts.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
	}
}

// Attempt calls fn until it succeeds, returns a FatalError, the context ends, or
// MaxAttempts is reached. There is no delay after the final attempt.
func Attempt(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) Result {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	res := Result{Outcome: NotAttempted}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if res.Attempts == 0 {
				res.Err = err
				return res
			}
			res.Outcome = Exhausted
			res.Err = errors.Join(res.Err, err)
			return res
		}

		res.Attempts = attempt
		err := fn(ctx, attempt)
		if err == nil {
			res.Outcome = Succeeded
			res.Err = nil
			return res
		}
		res.Outcome = Exhausted
		res.Err = err

		if isFatalError(err) || attempt == p.MaxAttempts {
			return res
		}

		wait := p.Delay
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			res.Err = errors.Join(res.Err, err)
			return res
		}
	}
	return res
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// Helper functions
// =============================================================================

// isFatalError returns true if err is or wraps a FatalError.
func isFatalError(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// isRateLimitError returns true if err carries HTTP status 429.
func isRateLimitError(err error) bool {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == http.StatusTooManyRequests
	}
	return false
}

// isServerError returns true if err carries a 5xx HTTP status.
func isServerError(err error) bool {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode()
		return code >= 500 && code < 600
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
