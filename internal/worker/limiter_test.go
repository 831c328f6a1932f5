package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 2)

	// Burst of 2 is allowed immediately
	if !limiter.Allow("openai") {
		t.Error("expected first request to be allowed")
	}
	if !limiter.Allow("openai") {
		t.Error("expected second request (burst) to be allowed")
	}
	if limiter.Allow("openai") {
		t.Error("expected third immediate request to be denied")
	}

	// A different provider has its own budget
	if !limiter.Allow("ollama") {
		t.Error("expected a fresh provider to be allowed")
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "openai"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	// 100 rps with burst 1: three requests need roughly 20ms
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected waits to clear quickly, took %v", elapsed)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("openai") // Drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected cancelled wait to return an error")
	}
}

func TestLimiter_SetProviderRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetProviderRate("ollama", 1000, 10)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("ollama") {
			t.Fatalf("expected custom provider rate to allow request %d", i)
		}
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	limiter := NewLimiter(1, 0)
	if limiter.defaultBurst <= 0 {
		t.Errorf("expected a positive default burst, got %d", limiter.defaultBurst)
	}
}
