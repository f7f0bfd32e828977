package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
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

func TestTTLMissBeforePut(t *testing.T) {
	c := NewTTL[string](time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestTTLHitWithinLifetime(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[string](time.Hour, WithClock(clock.Now))

	c.Put("k", "v1")
	clock.Advance(59 * time.Minute)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if got != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}
}

func TestTTLExpiresAtBoundary(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[string](time.Hour, WithClock(clock.Now))

	c.Put("k", "v1")
	clock.Advance(time.Hour)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss once age equals TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after stale read", c.Len())
	}
}

func TestTTLPutOverwritesAndRestamps(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[string](time.Hour, WithClock(clock.Now))

	c.Put("k", "v1")
	clock.Advance(50 * time.Minute)
	c.Put("k", "v2")
	clock.Advance(50 * time.Minute)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after refresh")
	}
	if got != "v2" {
		t.Errorf("Get() = %q, want v2", got)
	}
}

func TestTTLStaleEntryStaysUntilRead(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[int](time.Minute, WithClock(clock.Now))

	c.Put("a", 1)
	c.Put("b", 2)
	clock.Advance(2 * time.Minute)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 before any read", c.Len())
	}
	c.Get("a")
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after reading one stale key", c.Len())
	}
}

func TestTTLSweep(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[int](time.Minute, WithClock(clock.Now))

	c.Put("old1", 1)
	c.Put("old2", 2)
	clock.Advance(2 * time.Minute)
	c.Put("fresh", 3)

	if removed := c.Sweep(); removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("expected fresh entry to survive sweep")
	}
}

func TestTTLInterleavedSequence(t *testing.T) {
	clock := newFakeClock()
	c := NewTTL[int](10*time.Second, WithClock(clock.Now))

	steps := []struct {
		advance time.Duration
		put     *int
		wantOK  bool
		want    int
	}{
		{advance: 0, wantOK: false},
		{advance: 0, put: intPtr(1), wantOK: true, want: 1},
		{advance: 9 * time.Second, wantOK: true, want: 1},
		{advance: 0, put: intPtr(2), wantOK: true, want: 2},
		{advance: 9 * time.Second, wantOK: true, want: 2},
		{advance: time.Second, wantOK: false},
		{advance: 0, wantOK: false},
	}

	for i, s := range steps {
		clock.Advance(s.advance)
		if s.put != nil {
			c.Put("k", *s.put)
		}
		got, ok := c.Get("k")
		if ok != s.wantOK {
			t.Fatalf("step %d: ok = %v, want %v", i, ok, s.wantOK)
		}
		if ok && got != s.want {
			t.Errorf("step %d: Get() = %d, want %d", i, got, s.want)
		}
	}
}

func TestTTLConcurrentAccess(t *testing.T) {
	c := NewTTL[int](time.Hour)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Put("shared", n)
			c.Get("shared")
			c.Sweep()
		}(i)
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Error("expected shared key to be present")
	}
}

func intPtr(n int) *int { return &n }
