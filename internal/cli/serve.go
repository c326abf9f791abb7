package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/internal/server"
	"github.com/matzehuels/anchorlay/pkg/buildinfo"
	"github.com/matzehuels/anchorlay/pkg/cache"
	"github.com/matzehuels/anchorlay/pkg/pipeline"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr        string
	redisURL    string
	redisPrefix string
	noCache     bool
	maxBody     int64
	timeout     time.Duration
}

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:        defaultAddr,
		redisPrefix: cache.DefaultRedisPrefix,
		maxBody:     server.DefaultMaxBodyBytes,
		timeout:     server.DefaultRequestTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver as an HTTP API",
		Long: `Serve the resolver as an HTTP API.

Routes:
  GET  /healthz       liveness and build information
  POST /v1/resolve    resolve the TOML or JSON scene in the request body

Query parameters of /v1/resolve: width, height, rem, format (json, svg, dot,
tree), measure, wrap, labels, hidden, detailed and refresh.

Frames are cached in the local cache directory, or in Redis with --redis.`,
		Example: `  anchorlay serve --addr :9000
  anchorlay serve --redis redis://localhost:6379/0
  curl -s --data-binary @ui.toml -H 'Content-Type: application/toml' \
    'localhost:8080/v1/resolve?width=1920&format=svg'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "redis URL for the frame cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&opts.redisPrefix, "redis-prefix", opts.redisPrefix, "key prefix for redis entries")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum scene size in bytes")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request resolution timeout")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	store, backend, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if backend == "redis" {
		// Servers of different builds may share one redis.
		keyer = cache.NewScopedKeyer(nil, buildinfo.Current().Version+":")
	}
	runner := pipeline.NewRunner(store, keyer, logger)
	defer runner.Close()

	srv := server.New(runner, logger, server.Config{
		MaxBodyBytes:   opts.maxBody,
		RequestTimeout: opts.timeout,
		CacheBackend:   backend,
	})

	printInfo("Serving on %s (cache: %s)", opts.addr, backend)
	if err := srv.ListenAndServe(ctx, opts.addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	printSuccess("Server stopped")
	return nil
}

// serveCache picks the cache backend of the server and names it.
func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, string, error) {
	if opts.noCache {
		return cache.NewNullCache(), "none", nil
	}
	if opts.redisURL == "" {
		store, err := newCache(false)
		if err != nil {
			return nil, "", fmt.Errorf("open cache: %w", err)
		}
		return store, "file", nil
	}

	rc, err := cache.NewRedisCache(cache.RedisConfig{URL: opts.redisURL, Prefix: opts.redisPrefix})
	if err != nil {
		return nil, "", fmt.Errorf("connect redis: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		rc.Close()
		return nil, "", fmt.Errorf("ping redis: %w", err)
	}
	c.Logger.Info("using redis cache", "prefix", opts.redisPrefix)
	return rc, "redis", nil
}
