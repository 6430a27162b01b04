package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

// fastRetry keeps tests quick while exercising the same loop.
func fastRetry(attempts int) func(ErrorClass) RetryConfig {
	return func(ErrorClass) RetryConfig {
		return RetryConfig{
			MaxAttempts:       attempts,
			InitialBackoff:    5 * time.Millisecond,
			MaxBackoff:        20 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		name               string
		errorClass         ErrorClass
		wantMaxAttempts    int
		wantInitialBackoff time.Duration
		wantMaxBackoff     time.Duration
	}{
		{"server error", ErrorClassServer, 5, 1 * time.Second, 30 * time.Second},
		{"rate limit", ErrorClassRateLimit, 5, 5 * time.Second, 60 * time.Second},
		{"network error", ErrorClassNetwork, 3, 2 * time.Second, 30 * time.Second},
		{"client error", ErrorClassClient, 3, 1 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := RetryConfigForErrorClass(tt.errorClass)
			if config.MaxAttempts != tt.wantMaxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", config.MaxAttempts, tt.wantMaxAttempts)
			}
			if config.InitialBackoff != tt.wantInitialBackoff {
				t.Errorf("InitialBackoff = %v, want %v", config.InitialBackoff, tt.wantInitialBackoff)
			}
			if config.MaxBackoff != tt.wantMaxBackoff {
				t.Errorf("MaxBackoff = %v, want %v", config.MaxBackoff, tt.wantMaxBackoff)
			}
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	if got := NoRetry(ErrorClassServer).MaxAttempts; got != 1 {
		t.Errorf("NoRetry MaxAttempts = %d, want 1", got)
	}
	for _, attempts := range []int{0, 1} {
		if got := RetryPolicy(attempts)(ErrorClassNetwork).MaxAttempts; got != 1 {
			t.Errorf("RetryPolicy(%d) MaxAttempts = %d, want 1", attempts, got)
		}
	}

	policy := RetryPolicy(4)
	server := policy(ErrorClassServer)
	if server.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", server.MaxAttempts)
	}
	if server.InitialBackoff != RetryConfigForErrorClass(ErrorClassServer).InitialBackoff {
		t.Errorf("InitialBackoff = %v, want the server class backoff", server.InitialBackoff)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsError(t *testing.T) {
	calls := 0
	cause := &APIError{StatusCode: 502, ErrorClass: ErrorClassServer}
	err := retryWithBackoff(context.Background(), nopLogger, NoRetry, func() error {
		calls++
		return cause
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err != cause {
		t.Errorf("error = %v, want the unwrapped cause", err)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := config.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(3), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("retryWithBackoff() error = %v, want nil", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(3), func() error {
		callCount++
		if callCount < 3 {
			return &APIError{StatusCode: 503, ErrorClass: ErrorClassServer}
		}
		return nil
	})

	if err != nil {
		t.Errorf("retryWithBackoff() error = %v, want nil", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	serverErr := &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(3), func() error {
		callCount++
		return serverErr
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("exhausted error should wrap the last APIError, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestRetryWithBackoff_ClientErrorNoRetry(t *testing.T) {
	callCount := 0
	clientErr := &APIError{StatusCode: 404, ErrorClass: ErrorClassClient}
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(3), func() error {
		callCount++
		return clientErr
	})

	if !errors.Is(err, clientErr) {
		t.Errorf("error = %v, want the client error unchanged", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1 (no retry for client errors)", callCount)
	}
}

func TestRetryWithBackoff_UnclassifiedErrorNoRetry(t *testing.T) {
	callCount := 0
	plain := errors.New("rate limiter: context canceled")
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(3), func() error {
		callCount++
		return plain
	})

	if !errors.Is(err, plain) {
		t.Errorf("error = %v, want %v", err, plain)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := func(ErrorClass) RetryConfig {
		return RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, BackoffMultiplier: 1}
	}

	callCount := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := retryWithBackoff(ctx, nopLogger, slow, func() error {
		callCount++
		return &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("error = %v, want ErrContextCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want to wrap context.Canceled", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryWithBackoff_ContextCancelledImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	err := retryWithBackoff(ctx, nopLogger, fastRetry(3), func() error {
		callCount++
		return &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
	})

	if err == nil {
		t.Error("expected an error")
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryWithBackoff_BackoffGrows(t *testing.T) {
	var timestamps []time.Time
	config := func(ErrorClass) RetryConfig {
		return RetryConfig{MaxAttempts: 3, InitialBackoff: 40 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}
	}

	_ = retryWithBackoff(context.Background(), nopLogger, config, func() error {
		timestamps = append(timestamps, time.Now())
		return &APIError{StatusCode: 500, ErrorClass: ErrorClassServer}
	})

	if len(timestamps) != 3 {
		t.Fatalf("attempts = %d, want 3", len(timestamps))
	}
	first := timestamps[1].Sub(timestamps[0])
	second := timestamps[2].Sub(timestamps[1])

	// 40ms and 80ms with ±20% jitter.
	if first < 30*time.Millisecond {
		t.Errorf("first backoff = %v, want >= 32ms", first)
	}
	if second < 60*time.Millisecond {
		t.Errorf("second backoff = %v, want >= 64ms", second)
	}
}

func TestRetryWithBackoff_PolicyPerClass(t *testing.T) {
	seen := map[ErrorClass]int{}
	config := func(class ErrorClass) RetryConfig {
		seen[class]++
		return RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}
	}

	_ = retryWithBackoff(context.Background(), nopLogger, config, func() error {
		return &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit}
	})

	if seen[ErrorClassRateLimit] == 0 {
		t.Error("retry policy should be chosen by the failure's class")
	}
}
