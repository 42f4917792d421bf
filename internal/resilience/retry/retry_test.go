package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return &HTTPError{StatusCode: 503, Message: "unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithBackoff: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return &HTTPError{StatusCode: 500, Message: "boom"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !strings.Contains(err.Error(), "max retry attempts (3) exceeded") {
		t.Errorf("error = %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Errorf("last error not wrapped: %v", err)
	}
}

func TestWithBackoffNonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		return &HTTPError{StatusCode: 400, Message: "bad request"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithBackoffContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 2.0}
	err := WithBackoff(ctx, cfg, func() error {
		return &HTTPError{StatusCode: 500, Message: "boom"}
	})
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"conn reset", fmt.Errorf("send: %w", syscall.ECONNRESET), true},
		{"http 500", &HTTPError{StatusCode: 500}, true},
		{"http 429", &HTTPError{StatusCode: http.StatusTooManyRequests}, true},
		{"http 408", &HTTPError{StatusCode: http.StatusRequestTimeout}, true},
		{"http 404", &HTTPError{StatusCode: 404}, false},
		{"http 401", &HTTPError{StatusCode: 401}, false},
		{"plain", errors.New("nope"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEmailConfigDefaultAttempts(t *testing.T) {
	if got := EmailConfig(0).MaxAttempts; got != 3 {
		t.Errorf("EmailConfig(0).MaxAttempts = %d, want 3", got)
	}
	if got := EmailConfig(5).MaxAttempts; got != 5 {
		t.Errorf("EmailConfig(5).MaxAttempts = %d, want 5", got)
	}
}

func TestAddJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := addJitter(base, 0.1)
		if d < base || d > base+base/10 {
			t.Fatalf("jittered duration %v outside [%v, %v]", d, base, base+base/10)
		}
	}
}
