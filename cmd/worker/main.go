package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/socialchef/larder/internal/cache"
	"github.com/socialchef/larder/internal/config"
	"github.com/socialchef/larder/internal/db"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/metrics"
	"github.com/socialchef/larder/internal/sentry"
	"github.com/socialchef/larder/internal/services/recipe"
	"github.com/socialchef/larder/internal/telemetry"
	"github.com/socialchef/larder/internal/worker"
)

func main() {
	defer sentry.Recover()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to run the worker")
	}

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-worker", cfg.ServiceVersion, cfg.Env,
		cfg.OtelExporterOTLPEndpoint, cfg.OTLPHeaders())
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdownTelemetry(ctx)
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName+"-worker", cfg.ServiceVersion); err != nil {
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
	}

	generator := recipe.NewGenerator(provider, recipe.GeneratorConfigFrom(cfg.Generation), opts...)

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}

	srv, err := worker.NewServer(cfg.RedisURL, cfg.Worker.Concurrency)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}
	mux := worker.NewMux(worker.NewRecipeHandler(generator), workerMetrics)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down worker...")
		srv.Shutdown()
	}()

	slog.Info("Starting worker",
		"concurrency", cfg.Worker.Concurrency,
		"provider", cfg.Generation.Provider)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
