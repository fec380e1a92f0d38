package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"localpulse/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGet_TTLBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewWithClock[string](clock)

	const ttl = 10 * time.Minute
	c.Set("events:pittsburgh:25", "cached", ttl)

	// Just inside the freshness window.
	clock.Advance(ttl - time.Second)
	if v, ok := c.Get("events:pittsburgh:25"); !ok || v != "cached" {
		t.Fatalf("Get just before expiry = (%q, %v), want (cached, true)", v, ok)
	}

	// Just past it: the entry must behave as absent.
	clock.Advance(2 * time.Second)
	if _, ok := c.Get("events:pittsburgh:25"); ok {
		t.Fatal("Get just after expiry should miss")
	}

	// Stale entries are not proactively deleted, only hidden.
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (stale entry retained until overwrite)", c.Len())
	}
}

func TestSet_ReplacesOnWrite(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewWithClock[int](clock)

	c.Set("k", 1, time.Minute)
	clock.Advance(2 * time.Minute) // first entry goes stale
	c.Set("k", 2, time.Minute)

	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Fatalf("Get after overwrite = (%d, %v), want (2, true)", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestClear_RemovesEverything(t *testing.T) {
	c := cache.New[string]()
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)

	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) should miss after Clear")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestGetOrCompute_CachesResult(t *testing.T) {
	c := cache.New[string]()
	var calls atomic.Int32

	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute(context.Background(), "k", time.Hour, compute)
		if err != nil {
			t.Fatal(err)
		}
		if v != "value" {
			t.Fatalf("got %q, want %q", v, "value")
		}
	}

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
}

func TestGetOrCompute_CoalescesConcurrentMisses(t *testing.T) {
	c := cache.New[int]()
	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(context.Background(), "k", time.Hour, compute)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	// Give every caller time to reach the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times for concurrent misses, want 1", got)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("caller %d got %d, want 7", i, v)
		}
	}
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	c := cache.New[string]()
	var calls atomic.Int32

	failing := func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("upstream down")
	}

	if _, err := c.GetOrCompute(context.Background(), "k", time.Hour, failing); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.GetOrCompute(context.Background(), "k", time.Hour, failing); err == nil {
		t.Fatal("expected error on retry")
	}
	if calls.Load() != 2 {
		t.Errorf("failed computes should not be cached; compute ran %d times, want 2", calls.Load())
	}
}
