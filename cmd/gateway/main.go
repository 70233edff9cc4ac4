// Package main is the entrypoint for the Foodgram gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/foodgram/gateway/internal/cache"
	"github.com/foodgram/gateway/internal/config"
	"github.com/foodgram/gateway/internal/database"
	"github.com/foodgram/gateway/internal/handler"
	"github.com/foodgram/gateway/internal/metrics"
	"github.com/foodgram/gateway/internal/proxy"
	"github.com/foodgram/gateway/internal/router"
	"github.com/foodgram/gateway/internal/server"
	"github.com/foodgram/gateway/internal/static"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("gateway stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Metrics
	promRecorder := metrics.NewPrometheus(nil)

	// Backend proxy
	backendURL, err := cfg.Backend()
	if err != nil {
		return err
	}
	backendProxy, err := proxy.New(proxy.Config{
		Backend:               backendURL,
		DialTimeout:           cfg.ProxyDialTimeout,
		ResponseHeaderTimeout: cfg.ProxyResponseTimeout,
	}, logger, promRecorder)
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}

	// File trees
	staticFS, err := static.NewFS(cfg.StaticRoot)
	if err != nil {
		return fmt.Errorf("static root: %w", err)
	}
	docsFS, err := static.NewFS(cfg.DocsRoot)
	if err != nil {
		return fmt.Errorf("docs root: %w", err)
	}
	mediaFS, err := static.NewFS(cfg.MediaRoot)
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}

	var index *static.Index
	if cfg.IndexWatch {
		index = static.NewIndex(staticFS, logger, promRecorder)
		if err := index.Reload(); err != nil {
			logger.Warn("failed to load index.html, serving from disk", "error", err)
		}
	}

	// Optional cache (rate limiting)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
	}

	// Optional database probe
	var pg *database.Postgres
	if cfg.DatabaseURL != "" {
		pg, err = database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to configure database probe",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return errors.New("invalid database configuration")
		}
	}

	trusted, err := cfg.TrustedNetworks()
	if err != nil {
		return err
	}

	// Public router
	staticOpts := static.Options{Logger: logger, Metrics: promRecorder}
	deps := router.Deps{
		Logger:         logger,
		Metrics:        promRecorder,
		Proxy:          backendProxy,
		SPA:            static.SPA(staticFS, index, staticOpts),
		Docs:           static.Docs(docsFS, "/api/docs", cfg.DocsFallback, staticOpts),
		Media:          static.Media(mediaFS, "/media", staticOpts),
		MaxBodySize:    cfg.MaxRequestBodySize,
		IsDevelopment:  cfg.IsDevelopment(),
		CORSOrigins:    cfg.GetCORSAllowedOrigins(),
		TrustedProxies: trusted,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if cfg.RateLimitActive() && cacheClient != nil {
		deps.RateLimiter = cacheClient
	}

	timeouts := server.Timeouts{
		Read:     cfg.ReadTimeout,
		Write:    cfg.WriteTimeout,
		Shutdown: cfg.ShutdownTimeout,
	}
	public := server.New("public", router.New(deps), fmt.Sprintf(":%d", cfg.AppPort), timeouts, logger)

	// Components close after the public listener drains.
	if cacheClient != nil {
		public.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}
	if pg != nil {
		public.OnShutdown("postgres", func(context.Context) error {
			pg.Close()
			return nil
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return public.Run(gctx) })

	if cfg.OpsPort != 0 {
		ops := server.New("ops", router.NewOps(router.OpsDeps{
			Logger:  logger,
			Handler: handler.New(version),
			Health:  handler.NewHealthHandler(readinessChecks(backendProxy, cacheClient, pg, staticFS)...),
			Metrics: promRecorder.Handler(),
		}), fmt.Sprintf(":%d", cfg.OpsPort), timeouts, logger)

		g.Go(func() error { return ops.Run(gctx) })
	}

	if index != nil {
		watcher, err := static.NewWatcher(staticFS.Root(), []string{static.IndexName}, static.DefaultDebounce, logger)
		if err != nil {
			logger.Warn("index.html hot reload disabled", "error", err)
		} else {
			g.Go(func() error { return watcher.Watch(gctx, index.Reload) })
		}
	}

	logger.Info("starting gateway",
		"version", version,
		"port", cfg.AppPort,
		"ops_port", cfg.OpsPort,
		"backend", backendURL.Host,
		"env", cfg.AppEnv,
		"rate_limit", deps.RateLimiter != nil,
		"index_watch", index != nil,
		"trusted_proxies", len(trusted),
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("gateway stopped")
	return nil
}

// readinessChecks lists the dependencies probed by /readyz. Optional
// dependencies that are not configured report as such.
func readinessChecks(p *proxy.Proxy, c *cache.Cache, pg *database.Postgres, staticFS *static.FS) []handler.Check {
	checks := []handler.Check{
		{Name: "backend", Checker: p},
		{Name: "static", Checker: handler.CheckFunc(func(context.Context) error {
			f, _, err := staticFS.OpenFile(static.IndexName)
			if err != nil {
				return err
			}
			return f.Close()
		})},
		{Name: "redis"},
		{Name: "postgres"},
	}
	if c != nil {
		checks[2].Checker = c
	}
	if pg != nil {
		checks[3].Checker = pg
	}
	return checks
}
