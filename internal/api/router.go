package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"

	"github.com/mybaseweek/weekstats/internal/api/handlers"
	"github.com/mybaseweek/weekstats/internal/config"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/manifest"
	"github.com/mybaseweek/weekstats/middleware"
)

const serviceName = "weekstats"

// Deps are the collaborators the router wires into handlers. Redis is
// optional; without it rate limits are kept per process.
type Deps struct {
	Stats   handlers.StatsService
	Avatars handlers.AvatarFetcher
	Redis   *redis.Client
}

func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	if cfg.OTelEnabled {
		r.Use(middleware.Tracing(serviceName))
	}

	var checkers []handlers.ReadinessChecker
	if deps.Redis != nil {
		checkers = append(checkers, handlers.NewRedisChecker(deps.Redis))
	}
	z := handlers.NewReadinessHandler(checkers...)
	r.Get("/healthz", z.Healthz)
	r.Get("/readyz", z.Readyz)
	r.Handle("/metrics", middleware.MetricsHandler())

	statsH := handlers.NewStatsHandler(deps.Stats)
	manifestH := handlers.NewManifestHandler(
		manifest.Build(cfg.AppURL, cfg.Manifest),
		cfg.DisableManifest,
	)
	ogH := handlers.NewOGHandler(deps.Stats, deps.Avatars)
	shareH := handlers.NewShareHandler(cfg.AppURL, deps.Stats.WindowDays())
	homeH := handlers.NewHomeHandler(deps.Stats, cfg.AppURL, cfg.DefaultFID)

	// JSON API, callable cross-origin
	r.Group(func(r chi.Router) {
		r.Use(middleware.APISecurityHeaders)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderXRequestID},
			ExposedHeaders: []string{middleware.HeaderXRequestID, "Retry-After"},
			MaxAge:         300,
		}))
		r.Use(rateLimit(cfg, deps.Redis, "stats"))

		r.Get("/stats", statsH.Get)
		r.Get("/api/my-base-week", statsH.Get)

		r.Get("/.well-known/farcaster.json", manifestH.Get)
		r.Get("/.well-known/app-manifest", manifestH.Get)
	})

	// pages and images embedded by Farcaster clients
	r.Group(func(r chi.Router) {
		r.Use(middleware.PageSecurityHeaders)
		r.Use(rateLimit(cfg, deps.Redis, "pages"))

		r.Get("/", homeH.Page)
		r.Get("/share/{userId}", shareH.Page)
		r.Get("/og/{userId}", ogH.Image)
		r.Get("/api/og/{userId}", ogH.Image)
	})

	return r
}

// rateLimit uses the Redis sliding window when Redis is configured and
// httprate's in-memory counter otherwise.
func rateLimit(cfg *config.Config, rdb *redis.Client, scope string) func(http.Handler) http.Handler {
	if !cfg.RLEnabled {
		return func(next http.Handler) http.Handler { return next }
	}
	if rdb == nil {
		return httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow)
	}
	return middleware.NewRedisRateLimiter(rdb).Middleware(middleware.RateLimitConfig{
		Scope:  scope,
		Limit:  cfg.RLLimit,
		Window: cfg.RLWindow,
		KeyFn:  middleware.KeyByIP,
	})
}
