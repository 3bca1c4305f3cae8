package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/socialchef/larder/internal/api"
	"github.com/socialchef/larder/internal/cache"
	"github.com/socialchef/larder/internal/config"
	"github.com/socialchef/larder/internal/db"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/metrics"
	"github.com/socialchef/larder/internal/sentry"
	"github.com/socialchef/larder/internal/services/recipe"
	"github.com/socialchef/larder/internal/telemetry"
	"github.com/socialchef/larder/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	defer sentry.Recover()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-server", cfg.ServiceVersion, cfg.Env,
		cfg.OtelExporterOTLPEndpoint, cfg.OTLPHeaders())
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdownTelemetry(ctx)
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	slog.SetDefault(logger.New(cfg.Env))

	provider, err := recipe.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to create generation provider: %v", err)
	}

	var opts []recipe.GeneratorOption

	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("Recipe cache disabled", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, recipe.WithCache(cache.NewRecipeCache(redisClient, cfg.Generation.CacheTTL)))
	}

	var history api.HistoryLister
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		store := db.NewHistoryStore(pool)
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		opts = append(opts, recipe.WithHistory(store))
		history = store
	}

	generator := recipe.NewGenerator(provider, recipe.GeneratorConfigFrom(cfg.Generation), opts...)

	var queue api.JobQueue
	if cfg.RedisURL != "" {
		q, err := worker.NewQueue(cfg.RedisURL, cfg.Generation.Timeout)
		if err != nil {
			log.Fatalf("Failed to create job queue: %v", err)
		}
		defer q.Close()
		queue = q
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.NewServer(cfg, generator, queue, history)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		slog.Info("Starting server",
			"port", cfg.Port,
			"provider", cfg.Generation.Provider,
			"output_format", cfg.Generation.OutputFormat)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Generation.Timeout+5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		sentry.CaptureError(ctx, err)
	}
}
