package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("send: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, true},
		{"network", errors.New("connection refused"), true},
		{"status 500", &StatusError{StatusCode: http.StatusInternalServerError}, true},
		{"status 503", &StatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{"status 429", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"status 400", &StatusError{StatusCode: http.StatusBadRequest}, false},
		{"status 401", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"openai api 404", &openai.APIError{HTTPStatusCode: http.StatusNotFound}, false},
		{"openai api 502", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"openai request 429", &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_Do(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first attempt succeeds", 0, nil, 1, false},
		{"succeeds on last retry", 2, &StatusError{StatusCode: 500}, 3, false},
		{"exhausts retries", 5, &StatusError{StatusCode: 500}, 3, true},
		{"permanent failure", 5, &StatusError{StatusCode: 400}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := testPolicy().do(context.Background(), "test", func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("do() calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryPolicy_DoStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 5, Backoff: time.Hour}

	calls := 0
	err := policy.do(ctx, "test", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("do() calls = %d, want 1", calls)
	}
}

func TestRetryPolicy_DoAppliesAttemptTimeout(t *testing.T) {
	policy := RetryPolicy{Timeout: 10 * time.Millisecond}
	err := policy.do(context.Background(), "test", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("do() error = %v, want DeadlineExceeded", err)
	}
}
