package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for matchcoach.
// Values come from an optional YAML file; environment variables always override.
// The API key is only read from the environment.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	AI      AIConfig      `yaml:"ai"`
}

// APIConfig configures the upstream match-data gateway.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"MATCHCOACH_API_BASE_URL" env-default:"https://api.opendota.com/api"`
	APIKey  string `yaml:"-" env:"OPENDOTA_API_KEY"` // Secret - not in YAML

	// MinDelay is the minimum gap between dispatches without a key.
	MinDelay time.Duration `yaml:"min_delay" env:"MATCHCOACH_API_MIN_DELAY" env-default:"1s"`
	// MinDelayWithKey applies when APIKey is set (higher quota).
	MinDelayWithKey time.Duration `yaml:"min_delay_with_key" env:"MATCHCOACH_API_MIN_DELAY_WITH_KEY" env-default:"100ms"`
	// RateLimitBackoff is how long to wait after an HTTP 429 before retrying.
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" env:"MATCHCOACH_API_RATE_LIMIT_BACKOFF" env-default:"5s"`
	MaxRetries       int           `yaml:"max_retries" env:"MATCHCOACH_API_MAX_RETRIES" env-default:"1"`
	Timeout          time.Duration `yaml:"timeout" env:"MATCHCOACH_API_TIMEOUT" env-default:"30s"`
}

// EffectiveMinDelay picks the inter-request delay for the configured quota.
func (c *APIConfig) EffectiveMinDelay() time.Duration {
	if c.APIKey != "" {
		return c.MinDelayWithKey
	}
	return c.MinDelay
}

// CacheConfig configures TTLs for the in-memory and persistent caches.
type CacheConfig struct {
	DefaultTTL    time.Duration `yaml:"default_ttl" env:"MATCHCOACH_CACHE_DEFAULT_TTL" env-default:"5m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"MATCHCOACH_CACHE_SWEEP_INTERVAL" env-default:"60s"`
	// PrefixTTLs lists prefix=ttl pairs, e.g. "match:=30m,player:=10m".
	PrefixTTLs string `yaml:"prefix_ttls" env:"MATCHCOACH_CACHE_PREFIX_TTLS" env-default:""`
	// NoPersist keeps gateway payloads in memory only instead of mirroring
	// them into SQLite.
	NoPersist bool `yaml:"no_persist" env:"MATCHCOACH_CACHE_NO_PERSIST"`
}

// DefaultPrefixTTLs applies when no prefix_ttls are configured.
var DefaultPrefixTTLs = map[string]time.Duration{
	"match:":      30 * time.Minute,
	"player:":     10 * time.Minute,
	"benchmarks:": 30 * time.Minute,
	"constants:":  2 * time.Hour,
	"analysis:":   10 * time.Minute,
}

// PrefixPolicy parses PrefixTTLs, falling back to DefaultPrefixTTLs.
func (c *CacheConfig) PrefixPolicy() (map[string]time.Duration, error) {
	out := make(map[string]time.Duration)
	if strings.TrimSpace(c.PrefixTTLs) == "" {
		for k, v := range DefaultPrefixTTLs {
			out[k] = v
		}
		return out, nil
	}
	for _, pair := range strings.Split(c.PrefixTTLs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.LastIndex(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("cache prefix_ttls: %q is not prefix=ttl", pair)
		}
		prefix := strings.TrimSpace(pair[:idx])
		d, err := time.ParseDuration(strings.TrimSpace(pair[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("cache prefix %q: %w", prefix, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("cache prefix %q: TTL must be positive", prefix)
		}
		out[prefix] = d
	}
	return out, nil
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path" env:"MATCHCOACH_DB" env-default:""`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level" env:"MATCHCOACH_LOG_LEVEL" env-default:"warn"`
	Development bool   `yaml:"development" env:"MATCHCOACH_LOG_DEV" env-default:"false"`
}

// AIConfig configures the optional explain command.
type AIConfig struct {
	Model  string `yaml:"model" env:"MATCHCOACH_AI_MODEL" env-default:"claude-haiku-4-5-20251001"`
	APIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// Load reads path if it exists, then applies environment overrides.
// A missing file is not an error; an unreadable or invalid one is.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", c.API.MaxRetries)
	}
	if c.API.MinDelay < 0 || c.API.MinDelayWithKey < 0 {
		return fmt.Errorf("api min delays must not be negative")
	}
	if _, err := c.Cache.PrefixPolicy(); err != nil {
		return err
	}
	return nil
}

// DefaultPath returns ~/.matchcoach/<name>.
func DefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".matchcoach", name)
}
