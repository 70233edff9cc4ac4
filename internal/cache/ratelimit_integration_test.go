//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/foodgram/gateway/internal/testutil"
)

func newIntegrationCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

// TestCheckIPRateLimit_Burst verifies the bucket allows exactly burst requests.
func TestCheckIPRateLimit_Burst(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	burst := 5
	for i := 0; i < burst; i++ {
		res, err := c.CheckIPRateLimit(ctx, "198.51.100.1", 1, burst)
		if err != nil {
			t.Fatalf("CheckIPRateLimit error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "198.51.100.1", 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit error: %v", err)
	}
	if res.Allowed {
		t.Error("expected request past burst to be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}

	other, err := c.CheckIPRateLimit(ctx, "198.51.100.2", 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit error: %v", err)
	}
	if !other.Allowed {
		t.Error("a different IP must have its own bucket")
	}
}

// TestCheckIPRateLimit_Concurrency verifies atomicity under concurrent load.
func TestCheckIPRateLimit_Concurrency(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	burst := 10
	var allowed, rejected int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				res, err := c.CheckIPRateLimit(ctx, "198.51.100.9", 1, burst)
				if err != nil {
					t.Errorf("CheckIPRateLimit error: %v", err)
					return
				}
				if res.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	// One token may refill while the goroutines run.
	if allowed < int64(burst) || allowed > int64(burst)+2 {
		t.Errorf("allowed = %d, want about %d", allowed, burst)
	}
	if allowed+rejected != 60 {
		t.Errorf("total = %d, want 60", allowed+rejected)
	}
}
