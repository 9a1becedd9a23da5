package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artconnect/artconnect/internal/auth"
	"github.com/artconnect/artconnect/internal/captions"
	"github.com/artconnect/artconnect/internal/config"
	"github.com/artconnect/artconnect/internal/db"
	"github.com/artconnect/artconnect/internal/handlers"
	"github.com/artconnect/artconnect/internal/images"
	"github.com/artconnect/artconnect/internal/middleware"
	"github.com/artconnect/artconnect/internal/repositories"
	"github.com/artconnect/artconnect/internal/storage"
)

const (
	maxImageBytes   = 16 << 20
	limiterIdleTTL  = 10 * time.Minute
	mirrorClientTTL = time.Minute
)

// newMetricsRegistry returns a registry carrying the runtime collectors together
// with the HTTP instrumentation registered on it.
func newMetricsRegistry() (*prometheus.Registry, *middleware.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, middleware.NewMetrics(reg)
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background workers and must be called on shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, reg *prometheus.Registry) (handlers.Dependencies, func(context.Context) error, error) {
	sessionStore := repositories.NewPostgresSessionStore(pool)
	postRepo := repositories.NewPostgresPostRepository(pool)

	var writer captions.Writer
	if cfg.Gemini.Enabled() {
		gemini, err := captions.NewGeminiWriter(ctx, cfg.Gemini)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		writer = captions.NewCachingWriter(gemini, cfg.CaptionCacheTTL)
	} else {
		slog.Warn("gemini api key not configured, captions fall back to fixed copy")
	}

	var store storage.ImageStore
	if cfg.ObjectStore.Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		store = s3Store
	} else {
		disk, err := storage.NewDiskStorage(cfg.UploadDir, "/static/uploads", maxImageBytes)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		store = disk
	}

	mirror := images.NewMirror(
		&http.Client{Timeout: mirrorClientTTL},
		store,
		postRepo,
		images.Config{Workers: cfg.ImageMirrorWorker, MaxBytes: maxImageBytes},
		slog.Default(),
	)

	deps := handlers.Dependencies{
		Users:       repositories.NewPostgresUserRepository(pool),
		Sessions:    auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore),
		Posts:       postRepo,
		Follows:     repositories.NewPostgresFollowRepository(pool),
		Market:      repositories.NewPostgresMarketRepository(pool),
		Writer:      captions.NewService(writer),
		Images:      store,
		Mirror:      mirror,
		AuthLimiter: newLimiter(cfg.AuthRateLimit),
		AILimiter:   newLimiter(cfg.AIRateLimit),
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}
	if reg != nil {
		deps.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	return deps, mirror.Shutdown, nil
}

func newLimiter(cfg config.RateLimitConfig) middleware.RateLimiter {
	return middleware.NewIPRateLimiter(cfg.Requests, cfg.Window, cfg.Burst, limiterIdleTTL)
}
