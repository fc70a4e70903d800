// Package gateway is a throttled, cached client for an OpenDota-compatible
// read API.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-match-coach/internal/apperrors"
	"github.com/pable/go-match-coach/internal/cache"
)

// DefaultBaseURL is the public OpenDota API root.
const DefaultBaseURL = "https://api.opendota.com/api"

const (
	defaultMinDelay    = time.Second
	defaultBackoff     = 5 * time.Second
	defaultTimeout     = 30 * time.Second
	batchConcurrency   = 4
	maxErrorBodyLength = 200
)

// Config holds the upstream connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	// MinDelay is the minimum gap between two dispatches.
	MinDelay time.Duration
	// RateLimitBackoff is slept after an HTTP 429 before retrying.
	RateLimitBackoff time.Duration
	// MaxRetries bounds 429 retries. Negative disables retrying.
	MaxRetries int
	Timeout    time.Duration
}

// PayloadStore is a persistent second-level cache for raw response bodies.
type PayloadStore interface {
	GetPayload(key string, now time.Time) ([]byte, bool, error)
	PutPayload(key string, body []byte, now time.Time, ttl time.Duration) error
	DeletePayload(key string) error
}

// Request names one endpoint call.
type Request struct {
	Endpoint string
	Params   map[string]string
}

// BatchResult is the outcome of one Request inside Batch. Exactly one of
// Data and Err is set.
type BatchResult struct {
	Request Request
	Data    []byte
	Err     error
}

// Client is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  *cache.Cache
	store  PayloadStore
	logger *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex // serialises dispatches
	lastDispatch time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithCache shares an existing cache. Without it the client owns a private one.
func WithCache(c *cache.Cache) Option {
	return func(cl *Client) {
		if c != nil {
			cl.cache = c
		}
	}
}

// WithStore enables the persistent payload store.
func WithStore(s PayloadStore) Option {
	return func(c *Client) { c.store = s }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClock replaces time.Now for throttle bookkeeping and the payload store.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleep replaces the context-aware sleep used by the throttle and backoff.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New returns a client for cfg. Zero durations take the package defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MinDelay < 0 {
		cfg.MinDelay = 0
	} else if cfg.MinDelay == 0 {
		cfg.MinDelay = defaultMinDelay
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = defaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	return c
}

// Cache exposes the client's cache for administration.
func (c *Client) Cache() *cache.Cache { return c.cache }

// Fetch returns the raw JSON body for endpoint. Reads are served from the
// memory cache, then the payload store, then the network.
func (c *Client) Fetch(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	key := CacheKey(endpoint, params)
	v, err := c.cache.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
		return c.load(ctx, key, endpoint, params)
	}, 0)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Batch fetches every request concurrently. The throttle still spaces the
// dispatches. Results are returned in request order and failures are independent.
func (c *Client) Batch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, r := range reqs {
		g.Go(func() error {
			data, err := c.Fetch(gctx, r.Endpoint, r.Params)
			results[i] = BatchResult{Request: r, Data: data, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// forget drops key from the memory cache and the payload store.
func (c *Client) forget(key string) {
	c.cache.Delete(key)
	if c.store != nil {
		if err := c.store.DeletePayload(key); err != nil {
			c.logger.Warn("payload store delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (c *Client) load(ctx context.Context, key, endpoint string, params map[string]string) ([]byte, error) {
	if c.store != nil {
		body, ok, err := c.store.GetPayload(key, c.now())
		if err != nil {
			c.logger.Warn("payload store read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.logger.Debug("payload store hit", zap.String("key", key))
			return body, nil
		}
	}

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.PutPayload(key, body, c.now(), c.cache.TTLFor(key)); err != nil {
			c.logger.Warn("payload store write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}

// get performs a throttled GET and retries HTTP 429 up to MaxRetries times.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	u := c.buildURL(endpoint, params)
	for attempt := 0; ; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}
		c.logger.Debug("dispatch", zap.String("endpoint", endpoint), zap.Int("attempt", attempt))

		status, body, err := c.do(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &apperrors.UpstreamError{Endpoint: endpoint, Message: err.Error(), Err: err}
		}

		switch {
		case status == http.StatusTooManyRequests && attempt < c.cfg.MaxRetries:
			c.logger.Warn("rate limited, backing off",
				zap.String("endpoint", endpoint),
				zap.Duration("backoff", c.cfg.RateLimitBackoff))
			if err := c.sleep(ctx, c.cfg.RateLimitBackoff); err != nil {
				return nil, err
			}
			continue
		case status == http.StatusNotFound:
			return nil, &apperrors.NotFoundError{Resource: resourceOf(endpoint), ID: idOf(endpoint, params)}
		case status < 200 || status > 299:
			return nil, &apperrors.UpstreamError{Endpoint: endpoint, Status: status, Message: snippet(body)}
		}
		return body, nil
	}
}

func (c *Client) do(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, redactURLError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// throttle blocks until MinDelay has elapsed since the previous dispatch.
// Holding mu while sleeping serialises concurrent callers.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastDispatch.IsZero() {
		if wait := c.cfg.MinDelay - c.now().Sub(c.lastDispatch); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastDispatch = c.now()
	return nil
}

func (c *Client) buildURL(endpoint string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	u := c.cfg.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// CacheKey derives the cache key for an endpoint call. The key starts with
// the resource kind ("match:", "player:", "benchmarks:", "constants:") so the
// prefix TTL policy applies, followed by the path and the sorted params.
// The API key never takes part in the key.
func CacheKey(endpoint string, params map[string]string) string {
	path := "/" + strings.Trim(endpoint, "/")
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "api_key" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(resourceOf(endpoint))
	b.WriteByte(':')
	b.WriteString(path)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// resourceOf maps the first path segment to a resource kind.
func resourceOf(endpoint string) string {
	seg := strings.Trim(endpoint, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	switch seg {
	case "matches":
		return "match"
	case "players":
		return "player"
	case "":
		return "root"
	}
	return seg
}

func idOf(endpoint string, params map[string]string) string {
	parts := strings.Split(strings.Trim(endpoint, "/"), "/")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k != "api_key" {
			keys = append(keys, k+"="+v)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, "&")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLength {
		s = s[:maxErrorBodyLength] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}

// redactURLError strips the query string from *url.Error so the API key never
// reaches logs or error messages.
func redactURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		if parsed, perr := url.Parse(ue.URL); perr == nil {
			parsed.RawQuery = ""
			return &url.Error{Op: ue.Op, URL: parsed.String(), Err: ue.Err}
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
