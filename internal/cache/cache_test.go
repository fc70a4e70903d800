package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestSetGetExpiry(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk))

	c.Set("match:1", "payload", time.Minute)
	v, ok := c.Get("match:1")
	if !ok || v != "payload" {
		t.Fatalf("expected payload, got %v ok=%v", v, ok)
	}

	// Entry is live strictly before createdAt+ttl.
	clk.Advance(time.Minute - time.Nanosecond)
	if !c.Has("match:1") {
		t.Error("expected entry to be live just before expiry")
	}

	clk.Advance(time.Nanosecond)
	if _, ok := c.Get("match:1"); ok {
		t.Error("expected entry to be absent at expiry")
	}
	if c.Has("match:1") {
		t.Error("Has should be false after expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestSetOverwritesTTL(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk))

	c.Set("k", 1, time.Hour)
	clk.Advance(30 * time.Minute)
	c.Set("k", 2, time.Minute)
	clk.Advance(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("overwrite should discard the old TTL")
	}
}

func TestPrefixPolicy(t *testing.T) {
	c := New(
		WithDefaultTTL(time.Minute),
		WithPrefixTTL("match:", 30*time.Minute),
		WithPrefixTTL("player:", 10*time.Minute),
		WithPrefixTTL("match:live:", 15*time.Second),
		WithPrefixTTL("constants:", 2*time.Hour),
	)

	tests := []struct {
		key  string
		want time.Duration
	}{
		{"match:123", 30 * time.Minute},
		{"match:live:9", 15 * time.Second},
		{"player:77", 10 * time.Minute},
		{"constants:heroes", 2 * time.Hour},
		{"benchmarks:1", time.Minute},
	}
	for _, tt := range tests {
		if got := c.TTLFor(tt.key); got != tt.want {
			t.Errorf("TTLFor(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSetWithoutTTLUsesPolicy(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk), WithPrefixTTL("player:", 10*time.Minute))

	c.Set("player:1", "p", 0)
	clk.Advance(9 * time.Minute)
	if !c.Has("player:1") {
		t.Error("expected entry to survive 9 minutes under a 10 minute prefix TTL")
	}
	clk.Advance(time.Minute)
	if c.Has("player:1") {
		t.Error("expected entry to expire at 10 minutes")
	}
}

func TestGetOrSetLoadsOncePerWindow(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk))

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 5; i++ {
		v, err := c.GetOrSet(context.Background(), "k", loader, time.Minute)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if v != 1 {
			t.Errorf("call %d: expected cached 1, got %v", i, v)
		}
	}
	if calls != 1 {
		t.Errorf("expected loader once, got %d", calls)
	}

	clk.Advance(time.Minute)
	v, _ := c.GetOrSet(context.Background(), "k", loader, time.Minute)
	if v != 2 || calls != 2 {
		t.Errorf("expected reload after expiry, got v=%v calls=%d", v, calls)
	}
}

func TestGetOrSetErrorNotCached(t *testing.T) {
	c := New()
	boom := errors.New("boom")

	if _, err := c.GetOrSet(context.Background(), "k", func(context.Context) (any, error) { return nil, boom }, time.Minute); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Has("k") {
		t.Error("failed load must not populate the cache")
	}
	v, err := c.GetOrSet(context.Background(), "k", func(context.Context) (any, error) { return "ok", nil }, time.Minute)
	if err != nil || v != "ok" {
		t.Errorf("expected ok after retry, got %v %v", v, err)
	}
}

func TestGetOrSetConcurrentMissesShareLoad(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.GetOrSet(context.Background(), "k", loader, time.Minute); err != nil || v != "v" {
				t.Errorf("got %v %v", v, err)
			}
		}()
	}
	// Give the goroutines a chance to join the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 8 {
		t.Errorf("unexpected loader count %d", n)
	}
	if !c.Has("k") {
		t.Error("expected key to be cached")
	}
}

func TestGetOrSetCancelledCallerDoesNotFailOthers(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	loader := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "v", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrSet(ctxA, "k", loader, time.Minute)
		errA <- err
	}()
	<-started

	type result struct {
		v   any
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.GetOrSet(context.Background(), "k", loader, time.Minute)
		resB <- result{v, err}
	}()
	// Let B join the flight before A walks away.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}

	close(release)
	r := <-resB
	if r.err != nil || r.v != "v" {
		t.Fatalf("live caller: got %v %v, want v", r.v, r.err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader calls = %d, want 1", n)
	}
	if !c.Has("k") {
		t.Error("expected the shared result to be cached")
	}
}

func TestGetOrSetLastWaiterCancelsLoad(t *testing.T) {
	c := New()
	started := make(chan struct{})
	stopped := make(chan error, 1)

	loader := func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrSet(ctx, "k", loader, time.Minute)
		done <- err
	}()
	<-started
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("load ctx err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("load kept running after every caller left")
	}
	if c.Has("k") {
		t.Error("abandoned load must not populate the cache")
	}
}

func TestClearByPrefixAndDelete(t *testing.T) {
	c := New()
	c.Set("match:1", 1, time.Hour)
	c.Set("match:2", 2, time.Hour)
	c.Set("player:1", 3, time.Hour)

	if n := c.ClearByPrefix("match:"); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if c.Has("match:1") || !c.Has("player:1") {
		t.Error("ClearByPrefix removed the wrong keys")
	}

	c.Delete("player:1")
	if c.Has("player:1") {
		t.Error("Delete did not remove key")
	}

	c.Set("a", 1, time.Hour)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Clear left %d entries", c.Len())
	}
}

func TestSweepEvictsExpired(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk))
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	clk.Advance(2 * time.Second)
	if n := c.Sweep(); n != 1 {
		t.Errorf("expected 1 evicted, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", c.Len())
	}
	if s := c.Stats(); s.Evictions != 1 || s.Entries != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestStartStopSweeper(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk), WithSweepInterval(5*time.Millisecond))
	c.Set("k", 1, time.Second)
	clk.Advance(time.Hour)

	c.Start(context.Background())
	c.Start(context.Background()) // second call is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()
	c.Stop()

	if c.Len() != 0 {
		t.Error("expected background sweeper to evict the expired entry")
	}
}

func TestTypedHelpers(t *testing.T) {
	c := New()
	c.Set("n", 42, time.Minute)

	if v, ok := GetAs[int](c, "n"); !ok || v != 42 {
		t.Errorf("GetAs[int] = %v %v", v, ok)
	}
	if _, ok := GetAs[string](c, "n"); ok {
		t.Error("GetAs with the wrong type should report absent")
	}

	calls := 0
	load := func(context.Context) (string, error) { calls++; return "x", nil }
	for i := 0; i < 3; i++ {
		if v, err := GetOrSetAs(context.Background(), c, "s", load, time.Minute); err != nil || v != "x" {
			t.Fatalf("GetOrSetAs = %v %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one load, got %d", calls)
	}
}

func TestAccessCountAndStats(t *testing.T) {
	c := New()
	c.Set("k", 1, time.Minute)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	if n := c.AccessCount("k"); n != 2 {
		t.Errorf("AccessCount = %d, want 2", n)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
