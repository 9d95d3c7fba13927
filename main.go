package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/mybaseweek/weekstats/internal/api"
	"github.com/mybaseweek/weekstats/internal/config"
	"github.com/mybaseweek/weekstats/internal/downstream"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/stats"
	"github.com/mybaseweek/weekstats/internal/tracing"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	Redis  *redis.Client
	Tracer *tracing.TracerProvider
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console")
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	zlog.Info().Str("version", version).Msg("logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("app init failed")
	}

	if err := app.Run(ctx); err != nil {
		zlog.Error().Err(err).Msg("server crashed")
		os.Exit(1)
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1) Observability
	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:    "weekstats",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRatio:    cfg.OTelSampleRatio,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, err
	}

	// 2) Redis, optional
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// the rate limiter fails open; readiness reports the outage
			zlog.Warn().Err(err).Msg("redis ping failed")
		} else {
			zlog.Info().Msg("redis connected")
		}
	} else {
		zlog.Warn().Msg("REDIS_URL empty: rate limits are per process")
	}

	// 3) Upstream clients
	hc := downstream.NewClient(cfg.UpstreamTimeout)
	neynar := downstream.NewNeynarClient(cfg.NeynarBaseURL, cfg.NeynarAPIKey, cfg.FeedPageSize, hc)
	avatars := downstream.NewAvatarClient(downstream.NewPublicClient(cfg.UpstreamTimeout))

	// 4) Application
	svc := stats.NewService(neynar, stats.NewReducer(cfg.MaxPages), cfg.WindowDays, cfg.StatsTimeout)

	// 5) Router
	handler := api.NewRouter(cfg, api.Deps{
		Stats:   svc,
		Avatars: avatars,
		Redis:   rdb,
	})

	// 6) Server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &App{
		Config: cfg,
		Server: srv,
		Redis:  rdb,
		Tracer: tp,
	}, nil
}

// Run serves until ctx is cancelled or the listener fails, then shuts down.
// It returns the listener error, if any.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", a.Server.Addr).Msg("listening")
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		zlog.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)

	return serveErr
}

// Shutdown drains in-flight requests, then releases Redis and flushes spans.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Server.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown failed")
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Tracer != nil {
		if err := a.Tracer.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("tracer shutdown failed")
		}
	}
	zlog.Info().Msg("shutdown complete")
}
