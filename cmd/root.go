package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/cache"
	"github.com/pable/go-match-coach/internal/config"
	"github.com/pable/go-match-coach/internal/gateway"
	"github.com/pable/go-match-coach/internal/logging"
	"github.com/pable/go-match-coach/internal/storage"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "matchcoach",
	Short: "Dota 2 match performance coach",
	Long: `Analyze a player's performance in a Dota 2 match using OpenDota data:
role detection, percentile grades against hero benchmarks, mistakes,
strengths and coaching points.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultPath("matchcoach.db"), "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath("config.yaml"), "path to YAML config (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads .env, the config file and the logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c

	if !cmd.Flags().Changed("db") && cfg.Storage.Path != "" {
		dbPath = cfg.Storage.Path
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	l, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded",
		zap.String("base_url", cfg.API.BaseURL),
		zap.String("api_key", logging.RedactKey(cfg.API.APIKey)),
		zap.String("db", dbPath))
	return nil
}

// openDB opens the database, creating its directory if needed.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// newCache builds the shared in-memory cache from the configured TTL policy.
func newCache() (*cache.Cache, error) {
	policy, err := cfg.Cache.PrefixPolicy()
	if err != nil {
		return nil, err
	}
	opts := []cache.Option{
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
		cache.WithSweepInterval(cfg.Cache.SweepInterval),
		cache.WithLogger(logger.Named("cache")),
	}
	for prefix, ttl := range policy {
		opts = append(opts, cache.WithPrefixTTL(prefix, ttl))
	}
	return cache.New(opts...), nil
}

// newGateway builds the OpenDota client. Payloads are mirrored into db unless
// persistence is disabled or db is nil.
func newGateway(c *cache.Cache, db *storage.DB) *gateway.Client {
	opts := []gateway.Option{
		gateway.WithCache(c),
		gateway.WithLogger(logger.Named("gateway")),
	}
	if db != nil && !cfg.Cache.NoPersist {
		opts = append(opts, gateway.WithStore(db))
	}
	return gateway.New(gateway.Config{
		BaseURL:          cfg.API.BaseURL,
		APIKey:           cfg.API.APIKey,
		MinDelay:         minDelay(cfg.API.EffectiveMinDelay()),
		RateLimitBackoff: cfg.API.RateLimitBackoff,
		MaxRetries:       cfg.API.MaxRetries,
		Timeout:          cfg.API.Timeout,
	}, opts...)
}

// minDelay maps a configured zero to the gateway's "no throttle" value.
func minDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// session bundles the per-invocation components most commands need.
type session struct {
	db       *storage.DB
	cache    *cache.Cache
	gw       *gateway.Client
	pipeline *analysis.Pipeline
}

func openSession() (*session, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	c, err := newCache()
	if err != nil {
		db.Close()
		return nil, err
	}
	gw := newGateway(c, db)
	p := analysis.New(gw,
		analysis.WithCache(c),
		analysis.WithRecorder(db),
		analysis.WithLogger(logger.Named("analysis")),
	)
	return &session{db: db, cache: c, gw: gw, pipeline: p}, nil
}

func (s *session) Close() error {
	s.cache.Stop()
	return s.db.Close()
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
