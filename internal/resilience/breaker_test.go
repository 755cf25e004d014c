package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		b.RecordFailure()
		if err := b.Allow(); err != nil {
			t.Fatalf("breaker should stay closed below threshold, got %v after %d failures", err, i+1)
		}
	}

	b.RecordFailure()
	err := b.Allow()
	if err == nil {
		t.Fatal("breaker should be open after reaching threshold")
	}
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *OpenError, got %T", err)
	}
	if openErr.Remaining <= 0 || openErr.Remaining > time.Minute {
		t.Errorf("unexpected remaining cool-down: %v", openErr.Remaining)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	if got := b.FailureCount(); got != 0 {
		t.Errorf("expected failure count 0 after success, got %d", got)
	}

	// Two more failures stay below threshold thanks to the reset.
	b.RecordFailure()
	b.RecordFailure()
	if err := b.Allow(); err != nil {
		t.Errorf("breaker should be closed, got %v", err)
	}
}

func TestBreakerOpenRejectsWithoutCounting(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	b.RecordFailure()
	b.RecordFailure()

	for i := 0; i < 5; i++ {
		if err := b.Allow(); err == nil {
			t.Fatal("breaker should reject while open")
		}
	}
	if got := b.FailureCount(); got != 2 {
		t.Errorf("rejections must not grow the failure count, got %d", got)
	}
}

func TestBreakerResetsAfterWindow(t *testing.T) {
	b := NewBreaker(1, 30*time.Millisecond)
	b.RecordFailure()

	if err := b.Allow(); err == nil {
		t.Fatal("breaker should be open inside the reset window")
	}

	time.Sleep(40 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("breaker should allow the probe after the window, got %v", err)
	}
	if got := b.FailureCount(); got != 0 {
		t.Errorf("expected count reset on reopen, got %d", got)
	}

	b.RecordSuccess()
	if err := b.Allow(); err != nil {
		t.Errorf("breaker should be fully closed after success, got %v", err)
	}
}

func TestBreakerSuccessClosesOpenCircuit(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	b.RecordFailure()
	if err := b.Allow(); err == nil {
		t.Fatal("breaker should be open")
	}

	b.RecordSuccess()
	if err := b.Allow(); err != nil {
		t.Errorf("a single success should fully close the circuit, got %v", err)
	}
}
