package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://wam.ae/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	// Different domain gets its own limiter
	if err := limiter.Wait(ctx, "http://sharjah.ae/bar"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "http://wam.ae", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", time.Since(start))
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetDomainRate("wam.ae", 1000, 10)

	// The custom rate should allow several immediate requests
	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow("http://wam.ae/x") {
			allowed++
		}
	}
	if allowed < 5 {
		t.Errorf("expected 5 immediate requests under custom burst, got %d", allowed)
	}
}

func TestLimiter_AllowRespectsRate(t *testing.T) {
	limiter := NewLimiter(1, 1) // 1 rps, burst 1

	if !limiter.Allow("http://wam.ae") {
		t.Error("first request should be allowed")
	}
	if limiter.Allow("http://wam.ae") {
		t.Error("second immediate request should be denied")
	}
}

func TestLimiter_BadURL(t *testing.T) {
	limiter := NewLimiter(10, 1)
	if limiter.Allow("://bad") {
		t.Error("unparseable URL should not be allowed")
	}
}
