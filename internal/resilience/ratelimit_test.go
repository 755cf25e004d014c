package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRateLimiterEnforcesSpacing(t *testing.T) {
	limiter := NewRateLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Three acquisitions require two full spacing intervals.
	if elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms for 3 requests, got %v", elapsed)
	}
}

func TestRateLimiterFirstRequestImmediate(t *testing.T) {
	limiter := NewRateLimiter(time.Second)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request should not wait, took %v", elapsed)
	}
}

func TestRateLimiterSerializesConcurrentCallers(t *testing.T) {
	limiter := NewRateLimiter(20 * time.Millisecond)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background()); err != nil {
				t.Errorf("Wait failed: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(stamps) != 4 {
		t.Fatalf("expected 4 completions, got %d", len(stamps))
	}
	// Check pairwise spacing after sorting by time.
	for i := 0; i < len(stamps); i++ {
		for j := i + 1; j < len(stamps); j++ {
			gap := stamps[j].Sub(stamps[i])
			if gap < 0 {
				gap = -gap
			}
			if gap < 15*time.Millisecond {
				t.Errorf("requests %d and %d only %v apart", i, j, gap)
			}
		}
	}
}

func TestRateLimiterContextCancellation(t *testing.T) {
	limiter := NewRateLimiter(time.Second)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Error("expected context error when cancelled mid-wait")
	}
}
