package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpapi "pocketly/internal/http"
	"pocketly/internal/platform/config"
	"pocketly/internal/platform/database"
	"pocketly/internal/platform/httpserver"
	"pocketly/internal/platform/logger"
	"pocketly/internal/platform/metrics"
	"pocketly/internal/platform/redis"
	"pocketly/internal/preferences"
	"pocketly/internal/ratelimit/limiter"
	rlmetrics "pocketly/internal/ratelimit/metrics"
	rlmiddleware "pocketly/internal/ratelimit/middleware"
	"pocketly/internal/ratelimit/store/bucket"
	waitlisthandler "pocketly/internal/waitlist/handler"
	waitlistmetrics "pocketly/internal/waitlist/metrics"
	"pocketly/internal/waitlist/service"
	"pocketly/internal/waitlist/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	checks := map[string]httpapi.HealthCheck{}

	backend, db, err := openBackend(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["subscriber_store"] = db.PingContext
	}

	var primary limiter.BucketStore
	fallback := bucket.NewInMemoryBucketStore()
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WarnContext(ctx, "redis unavailable, rate limiting is process-local", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		primary = bucket.NewRedisBucketStore(redisClient.Client)
	} else {
		primary = fallback
	}

	rlMetrics := rlmetrics.New(reg)
	lim := limiter.New(primary, cfg.RateLimit,
		limiter.WithFallback(fallback),
		limiter.WithLogger(log),
		limiter.WithMetrics(rlMetrics),
	)
	rl := rlmiddleware.New(lim, log,
		rlmiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlmiddleware.WithMetrics(rlMetrics),
	)

	svc := service.New(backend,
		service.WithLogger(log),
		service.WithMetrics(waitlistmetrics.New(reg)),
	)
	router := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Waitlist: waitlisthandler.New(svc, log, httpMetrics,
			waitlisthandler.WithTimeout(cfg.RequestTimeout),
			waitlisthandler.WithMiddleware(rl.RateLimit),
		),
		Preferences: preferences.NewHandler(!cfg.IsDevelopment()),
		Checks:      checks,
	})
	srv := httpserver.New(cfg.Addr, router, httpserver.WithRequestTimeout(cfg.RequestTimeout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting pocketly waitlist", "addr", cfg.Addr, "mode", svc.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return lim.RunSweeper(gctx, cfg.RateLimit.CleanupInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openBackend picks the subscriber store. Missing credentials are not an
// error: the service then answers in development mode.
func openBackend(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (store.Backend, *sql.DB, error) {
	if cfg.Driver == config.DriverMemory {
		log.WarnContext(ctx, "using in-memory subscriber store; data is lost on restart")
		return store.Configured{Store: store.NewInMemory()}, nil, nil
	}
	if !cfg.Configured() {
		reason := "SUBSCRIBER_STORE_URL or SUBSCRIBER_STORE_KEY is not set"
		log.WarnContext(ctx, "subscriber store not configured, running in development mode", "reason", reason)
		return store.Unconfigured{Reason: reason}, nil, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return store.Configured{Store: store.NewPostgres(db)}, db, nil
}
