// Package config holds the service configuration.
//
// Values come from three layers, later layers winning: [Default], an
// optional TOML file read by [Load], and environment variables applied by
// [Config.ApplyEnv]. The CLI applies its flags on top. A Config is built
// once at startup and handed to the components that need it; nothing in
// the pipeline reads it directly.
//
// Example file:
//
//	[server]
//	addr = ":8080"
//	token = "secret"
//	max_concurrent = 4
//	max_upload_bytes = 10485760
//	fetch_timeout = "10s"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	prefix = "vectorize"
//	ttl = "24h"
//
//	[log]
//	level = "debug"
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sherafyk/vectorize-svc/pkg/cache"
	"github.com/sherafyk/vectorize-svc/pkg/fetch"
)

// Environment variables read by ApplyEnv.
const (
	EnvToken    = "API_TOKEN"
	EnvAddr     = "VECTORIZE_ADDR"
	EnvRedisURL = "REDIS_URL"
	EnvLogLevel = "VECTORIZE_LOG_LEVEL"
)

// Config is the complete service configuration.
type Config struct {
	Server Server `toml:"server"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
}

// Server configures the HTTP boundary.
type Server struct {
	Addr           string   `toml:"addr"`
	Token          string   `toml:"token"` // empty disables auth
	MaxConcurrent  int      `toml:"max_concurrent"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	FetchTimeout   Duration `toml:"fetch_timeout"`
}

// Cache selects and configures the artifact cache.
type Cache struct {
	Backend  string   `toml:"backend"` // none, file or redis
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration: open access on :8080, no
// cache, 10 MiB input cap and a 10s fetch timeout.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			MaxUploadBytes: fetch.DefaultMaxBytes,
			FetchTimeout:   Duration{fetch.DefaultTimeout},
		},
		Cache: Cache{
			Backend: cache.BackendNone,
			TTL:     Duration{cache.TTLSVG},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// Default. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("parse config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides values from the environment. A set REDIS_URL also
// selects the redis backend when no backend was configured.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvToken); ok {
		c.Server.Token = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.Cache.RedisURL = v
		if c.Cache.Backend == "" || c.Cache.Backend == cache.BackendNone {
			c.Cache.Backend = cache.BackendRedis
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be >= 0, got %d", c.Server.MaxConcurrent))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be > 0, got %d", c.Server.MaxUploadBytes))
	}
	if c.Server.FetchTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("server.fetch_timeout must be > 0, got %s", c.Server.FetchTimeout))
	}
	if c.Cache.TTL.Duration < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0, got %s", c.Cache.TTL))
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone:
	case cache.BackendFile:
		if c.Cache.Dir == "" {
			errs = append(errs, errors.New("cache.dir is required for the file backend"))
		}
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
	}
}
