package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultMaxAttempts is the number of tries for one request, including the first.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait before the first retry; it doubles on each retry.
	DefaultBaseDelay = 2 * time.Second
)

// RetryPolicy retries transient Gemini failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy returns a policy with defaults for non-positive arguments.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Sleep: sleepContext}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << (attempt - 1)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempts
// are used up. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == attempts {
			return err
		}
		if serr := sleep(ctx, p.Delay(attempt)); serr != nil {
			return errors.Join(err, serr)
		}
	}
	return err
}

// IsRetryable reports whether err is a rate limit or server-side failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return retryableStatus(apiErrPtr.Code)
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
