package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://example.org"); err != nil {
		t.Errorf("wait failed for second host: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "http://example.com"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst 1, token consumed: Allow must refuse immediately while an
	// unrelated host still passes.
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("http://other.example") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "slow.example"

	limiter.SetHostRate(host, 0.1, 1)

	if !limiter.Allow("http://" + host) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://" + host) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.example") {
		t.Errorf("other host should pass")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://example.com/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
