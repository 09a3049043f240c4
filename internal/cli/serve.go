package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/internal/api"
	"github.com/sherafyk/vectorize-svc/pkg/cache"
	"github.com/sherafyk/vectorize-svc/pkg/config"
	"github.com/sherafyk/vectorize-svc/pkg/fetch"
	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
)

// serveOpts holds the serve flags. Flags only override the configuration
// when they are set explicitly.
type serveOpts struct {
	configPath    string
	addr          string
	token         string
	maxConcurrent int
	cacheBackend  string
	cacheDir      string
	redisURL      string
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vectorize HTTP API",
		Long: `Run the vectorize HTTP API until interrupted.

Configuration is read from --config (TOML), then API_TOKEN, VECTORIZE_ADDR
and REDIS_URL from the environment, then the flags below.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	f.StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	f.StringVar(&opts.token, "token", "", "require this API token")
	f.IntVar(&opts.maxConcurrent, "max-concurrent", 0, "concurrent traces (default: CPU count)")
	f.StringVar(&opts.cacheBackend, "cache", "", "cache backend: none, file, redis")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "directory for the file cache")
	f.StringVar(&opts.redisURL, "redis-url", "", "redis URL for the redis cache")

	return cmd
}

func loadServeConfig(cmd *cobra.Command, opts *serveOpts) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if f.Changed("token") {
		cfg.Server.Token = opts.token
	}
	if f.Changed("max-concurrent") {
		cfg.Server.MaxConcurrent = opts.maxConcurrent
	}
	if f.Changed("cache") {
		cfg.Cache.Backend = opts.cacheBackend
	}
	if f.Changed("cache-dir") {
		cfg.Cache.Dir = opts.cacheDir
	}
	if f.Changed("redis-url") {
		cfg.Cache.RedisURL = opts.redisURL
	}
	if cfg.Cache.Backend == cache.BackendFile && cfg.Cache.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)
	// --verbose wins over the configured level.
	if cfg.Log.Level != "" && logger.GetLevel() == LogInfo {
		logger.SetLevel(parseLevel(cfg.Log.Level))
	}

	cc, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	runner := pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, cfg.Cache.Prefix), logger, cfg.Server.MaxConcurrent)
	runner.TTL = cfg.Cache.TTL.Duration
	defer runner.Close()

	logger.Info("cache ready", "backend", backendName(cfg.Cache.Backend), "ttl", runner.TTL)

	srv := api.New(api.Options{
		Runner:         runner,
		Fetcher:        fetch.NewClient(cfg.Server.FetchTimeout.Duration, cfg.Server.MaxUploadBytes),
		Logger:         logger,
		Token:          cfg.Server.Token,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func backendName(b string) string {
	if b == "" {
		return cache.BackendNone
	}
	return b
}
