package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"docqa/internal/contextutil"
)

var (
	// ErrEmbeddingFailure wraps every error returned by an embedder.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrGenerationFailure wraps every error returned by a generator.
	ErrGenerationFailure = errors.New("generation failure")
)

// RetryPolicy bounds external calls. Each attempt gets its own timeout;
// attempts are spaced by Backoff times the attempt number.
type RetryPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy returns a 30s timeout with two retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		Backoff:    500 * time.Millisecond,
	}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	code := 0
	var se *StatusError
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &se):
		code = se.StatusCode
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	if code == 0 {
		return true
	}
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// do runs fn until it succeeds, fails permanently or runs out of attempts.
func (p RetryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Backoff * time.Duration(attempt)
			logger.WarnContext(ctx, "retrying external call", "operation", op, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}
