package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// MaxBatchSize is the largest event batch the remote accepts.
const MaxBatchSize = 1000

// Config struct to hold the configuration settings
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Remote    RemoteConfig    `yaml:"remote"`
	Sync      SyncConfig      `yaml:"sync"`
	Retention RetentionConfig `yaml:"retention"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig holds the local SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig holds the remote authority settings. An empty BaseURL runs
// fully offline.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

type SyncConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	BatchSize     int           `yaml:"batch_size"`
}

type RetentionConfig struct {
	Match      time.Duration `yaml:"match"`
	TempPlayer time.Duration `yaml:"temp_player"`
}

type CacheConfig struct {
	Backend  string `yaml:"backend"` // sqlite|redis
	RedisURL string `yaml:"redis_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig holds the daemon's /metrics listener. Empty disables it.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "ots.db"},
		Remote:   RemoteConfig{Timeout: 10 * time.Second, Retries: 3},
		Sync: SyncConfig{
			Interval:      time.Minute,
			RatePerSecond: 5,
			BatchSize:     MaxBatchSize,
		},
		Retention: RetentionConfig{Match: 24 * time.Hour, TempPlayer: 24 * time.Hour},
		Cache:     CacheConfig{Backend: CacheSQLite},
		Log:       LogConfig{Level: "info", Format: "legacy"},
	}
}

// LoadConfig loads the configuration from a YAML file. If the file cannot
// be read the configuration comes from environment variables alone. In both
// cases set environment variables win over file values, unset fields take
// their defaults, and the result is validated.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s value: %w", name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s value: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str("OTS_DB_PATH", &cfg.Database.Path)
	str("OTS_REMOTE_URL", &cfg.Remote.BaseURL)
	str("OTS_REMOTE_TOKEN", &cfg.Remote.Token)
	dur("OTS_REMOTE_TIMEOUT", &cfg.Remote.Timeout)
	integer("OTS_REMOTE_RETRIES", &cfg.Remote.Retries)
	dur("OTS_SYNC_INTERVAL", &cfg.Sync.Interval)
	if v := os.Getenv("OTS_SYNC_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid OTS_SYNC_RATE value: %w", err))
		} else {
			cfg.Sync.RatePerSecond = f
		}
	}
	integer("OTS_SYNC_BATCH_SIZE", &cfg.Sync.BatchSize)
	dur("OTS_MATCH_RETENTION", &cfg.Retention.Match)
	dur("OTS_TEMP_PLAYER_RETENTION", &cfg.Retention.TempPlayer)
	str("OTS_CACHE_BACKEND", &cfg.Cache.Backend)
	str("REDIS_URL", &cfg.Cache.RedisURL)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)
	str("METRICS_ADDRESS", &cfg.Metrics.Address)

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = d.Remote.Timeout
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = d.Sync.Interval
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = d.Sync.BatchSize
	}
	if c.Retention.Match == 0 {
		c.Retention.Match = d.Retention.Match
	}
	if c.Retention.TempPlayer == 0 {
		c.Retention.TempPlayer = d.Retention.TempPlayer
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Remote.Retries < 0 {
		errs = append(errs, fmt.Errorf("remote.retries must not be negative, got %d", c.Remote.Retries))
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout))
	}
	if c.Sync.Interval < 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval))
	}
	if c.Sync.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("sync.rate_per_second must not be negative, got %g", c.Sync.RatePerSecond))
	}
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("sync.batch_size must be between 1 and %d, got %d", MaxBatchSize, c.Sync.BatchSize))
	}
	if c.Retention.Match < 0 || c.Retention.TempPlayer < 0 {
		errs = append(errs, errors.New("retention windows must be positive"))
	}
	switch c.Cache.Backend {
	case CacheSQLite:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be %s or %s, got %q", CacheSQLite, CacheRedis, c.Cache.Backend))
	}
	return errors.Join(errs...)
}

// Offline reports whether no remote authority is configured.
func (c *Config) Offline() bool {
	return strings.TrimSpace(c.Remote.BaseURL) == ""
}

// LogOptions maps the log section onto obslog options. Console output is
// always on.
func (c *Config) LogOptions() obslog.Options {
	opts := obslog.DefaultOptions()
	opts.Level = c.Log.Level
	opts.Format = c.Log.Format
	opts.File = c.Log.File
	return opts
}
