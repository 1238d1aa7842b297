package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastPolicy(attempts int) *RetryPolicy {
	return DefaultRetryPolicy().WithMaxAttempts(attempts).WithInitialDelay(time.Millisecond).WithJitter(0)
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	calls := 0
	result := NewExecutor(fastPolicy(3)).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewAPIError("/x", http.StatusServiceUnavailable, "", "")
		}
		return nil
	})

	if result.LastError != nil {
		t.Fatalf("Expected success, got %v", result.LastError)
	}
	if result.Attempts != 3 || calls != 3 {
		t.Errorf("Expected 3 attempts, got %d (calls %d)", result.Attempts, calls)
	}
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	calls := 0
	result := NewExecutor(fastPolicy(5)).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return NewAPIError("/x", http.StatusUnauthorized, "", "")
	})

	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
	if !errors.Is(result.LastError, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", result.LastError)
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	result := NewExecutor(fastPolicy(2)).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return NewAPIError("/x", http.StatusTooManyRequests, "", "")
	})

	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
	if !errors.Is(result.LastError, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", result.LastError)
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultRetryPolicy().WithMaxAttempts(5).WithInitialDelay(time.Hour)

	calls := 0
	result := NewExecutor(policy).Execute(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return NewAPIError("/x", http.StatusBadGateway, "", "")
	})

	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
	if !errors.Is(result.LastError, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", result.LastError)
	}
}

func TestDelayForAttemptIsCapped(t *testing.T) {
	p := DefaultRetryPolicy().WithJitter(0).WithMaxDelay(2 * time.Second)

	if d := p.DelayForAttempt(1); d != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", d)
	}
	if d := p.DelayForAttempt(2); d != time.Second {
		t.Errorf("Expected 1s, got %v", d)
	}
	if d := p.DelayForAttempt(10); d != 2*time.Second {
		t.Errorf("Expected cap of 2s, got %v", d)
	}
}
