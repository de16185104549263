package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, Timeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected operation error, got %v", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}
	if err := cb.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, MaxRequests: 2, Timeout: 10 * time.Millisecond})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}

	time.Sleep(15 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("probe %d failed: %v", i, err)
		}
	}

	if cb.State() != StateClosed {
		t.Fatalf("expected closed state after probes, got %v", cb.State())
	}
}
