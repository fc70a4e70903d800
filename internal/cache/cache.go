// Package cache provides an in-memory key/value store with per-entry TTL,
// a prefix-based TTL policy and an owned background sweeper.
package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL applies when neither an explicit TTL nor a prefix rule matches.
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval is how often Start evicts expired entries.
	DefaultSweepInterval = 60 * time.Second
)

// Clock abstracts time so tests can drive expiry deterministically.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// entry is owned by the cache and never handed out.
type entry struct {
	value       any
	createdAt   time.Time
	ttl         time.Duration
	accessCount int
}

func (e *entry) live(now time.Time) bool {
	return now.Before(e.createdAt.Add(e.ttl))
}

type prefixTTL struct {
	prefix string
	ttl    time.Duration
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is safe for concurrent use. A single coarse lock guards the map.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	policy   []prefixTTL // sorted longest prefix first
	stats    Stats
	flight   singleflight.Group
	loadMu   sync.Mutex
	loads    map[string]*load
	clock    Clock
	logger   *zap.Logger
	interval time.Duration
	fallback time.Duration

	sweepMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a clock.
func WithClock(c Clock) Option {
	return func(cc *Cache) {
		if c != nil {
			cc.clock = c
		}
	}
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.fallback = ttl
		}
	}
}

// WithPrefixTTL registers a TTL for keys starting with prefix.
func WithPrefixTTL(prefix string, ttl time.Duration) Option {
	return func(c *Cache) { c.setPrefixTTL(prefix, ttl) }
}

// WithSweepInterval overrides DefaultSweepInterval.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger attaches a logger for sweep diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty cache. The sweeper is not running until Start.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		loads:    make(map[string]*load),
		clock:    wallClock{},
		logger:   zap.NewNop(),
		interval: DefaultSweepInterval,
		fallback: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPrefixTTL registers or replaces the TTL for keys starting with prefix.
func (c *Cache) SetPrefixTTL(prefix string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPrefixTTL(prefix, ttl)
}

func (c *Cache) setPrefixTTL(prefix string, ttl time.Duration) {
	if prefix == "" || ttl <= 0 {
		return
	}
	for i := range c.policy {
		if c.policy[i].prefix == prefix {
			c.policy[i].ttl = ttl
			return
		}
	}
	c.policy = append(c.policy, prefixTTL{prefix: prefix, ttl: ttl})
	sort.SliceStable(c.policy, func(i, j int) bool {
		return len(c.policy[i].prefix) > len(c.policy[j].prefix)
	})
}

// TTLFor resolves the policy TTL for key: the longest matching prefix, or the default.
func (c *Cache) TTLFor(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttlFor(key)
}

func (c *Cache) ttlFor(key string) time.Duration {
	for _, p := range c.policy {
		if strings.HasPrefix(key, p.prefix) {
			return p.ttl
		}
	}
	return c.fallback
}

// Set stores value under key, replacing any previous entry and its TTL.
// A ttl <= 0 resolves the TTL from the prefix policy.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		ttl = c.ttlFor(key)
	}
	c.entries[key] = &entry{value: value, createdAt: c.clock.Now(), ttl: ttl}
}

// Get returns the live value for key. Expired entries are evicted on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if !e.live(c.clock.Now()) {
		delete(c.entries, key)
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}
	e.accessCount++
	c.stats.Hits++
	return e.value, true
}

// Has reports whether key holds a live value, with the same eviction as Get.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if !e.live(c.clock.Now()) {
		delete(c.entries, key)
		c.stats.Evictions++
		return false
	}
	return true
}

// GetOrSet returns the live value for key, or runs loader, stores its result
// and returns it. Concurrent misses on the same key share one loader call.
// Loader errors are returned and nothing is stored.
//
// The shared load runs on a context detached from any single caller. Each
// caller stops waiting when its own ctx is done; the load itself is cancelled
// only once every waiting caller has gone.
func (c *Cache) GetOrSet(ctx context.Context, key string, loader func(context.Context) (any, error), ttl time.Duration) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	for {
		l := c.join(ctx, key)
		ch := c.flight.DoChan(key, func() (any, error) {
			defer c.finish(key, l)
			// Another caller may have filled the key while we waited for the flight.
			if v, ok := c.peek(key); ok {
				return v, nil
			}
			v, err := loader(l.ctx)
			if err != nil {
				return nil, err
			}
			c.Set(key, v, ttl)
			return v, nil
		})
		select {
		case <-ctx.Done():
			c.leave(key, l)
			return nil, ctx.Err()
		case r := <-ch:
			c.leave(key, l)
			// The flight we joined was abandoned by its earlier callers.
			if r.Err != nil && isContextErr(r.Err) && ctx.Err() == nil {
				continue
			}
			return r.Val, r.Err
		}
	}
}

// load tracks the callers waiting on one in-flight key.
type load struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *Cache) join(ctx context.Context, key string) *load {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	l, ok := c.loads[key]
	if !ok {
		lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		l = &load{ctx: lctx, cancel: cancel}
		c.loads[key] = l
	}
	l.waiters++
	return l
}

// leave drops one waiter; the last one out cancels the shared load.
func (c *Cache) leave(key string, l *load) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	l.waiters--
	if l.waiters > 0 {
		return
	}
	l.cancel()
	if c.loads[key] == l {
		delete(c.loads, key)
	}
}

func (c *Cache) finish(key string, l *load) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loads[key] == l {
		delete(c.loads, key)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// peek reads without touching counters.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !e.live(c.clock.Now()) {
		return nil, false
	}
	return e.value, true
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// ClearByPrefix removes every key starting with prefix and returns the count.
func (c *Cache) ClearByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, live or not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// AccessCount returns how many successful reads key has served.
func (c *Cache) AccessCount(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.accessCount
	}
	return 0
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	n := 0
	for k, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Evictions += uint64(n)
	return n
}

// Start launches the background sweeper. Calling Start on a running cache is a no-op.
func (c *Cache) Start(ctx context.Context) {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.sweepLoop(ctx, c.done)
}

func (c *Cache) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("cache sweep", zap.Int("evicted", n), zap.Int("remaining", c.Len()))
			}
		}
	}
}

// Stop cancels the sweeper and waits for it to exit.
func (c *Cache) Stop() {
	c.sweepMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.sweepMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// GetAs is Get with a type assertion; a value of another type reads as absent.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// GetOrSetAs is GetOrSet with a typed loader.
func GetOrSetAs[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error), ttl time.Duration) (T, error) {
	var zero T
	v, err := c.GetOrSet(ctx, key, func(ctx context.Context) (any, error) { return loader(ctx) }, ttl)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		// A different type was cached under this key; reload and overwrite.
		fresh, err := loader(ctx)
		if err != nil {
			return zero, err
		}
		c.Set(key, fresh, ttl)
		return fresh, nil
	}
	return t, nil
}
