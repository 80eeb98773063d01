// Command worker consumes sourcing scan tasks and lifecycle events from
// Redpanda.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clearpathhq/clearpath/internal/adapter/ai"
	"github.com/clearpathhq/clearpath/internal/adapter/directory"
	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/adapter/queue/redpanda"
	"github.com/clearpathhq/clearpath/internal/adapter/repo/postgres"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/service/ratelimiter"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// The worker exposes its own /metrics endpoint so scan instrumentation is
	// scrapeable separately from the API server.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	jobRepo := postgres.NewJobRepo(pool)
	appRepo := postgres.NewApplicationRepo(pool)
	agentRepo := postgres.NewAgentRepo(pool)

	talentDir, err := directory.NewYAMLFile(cfg.CandidateDirFile)
	if err != nil {
		slog.Error("candidate directory init failed",
			slog.String("path", cfg.CandidateDirFile), slog.Any("error", err))
		os.Exit(1)
	}

	// The AI rate bucket is shared with the server via Redis, so both
	// processes together stay under the provider quota.
	aiLimiter := ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
		"ai_chat": ratelimiter.NewBucketConfigFromPerMinute(cfg.AIRatePerMin),
	})
	aicl := ai.New(cfg, aiLimiter)

	// Distinct transactional ID from the server's producer to avoid fencing.
	producer, err := redpanda.NewProducerWithTransactionalID(cfg.KafkaBrokers, "clearpath-worker-producer")
	if err != nil {
		slog.Error("queue producer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	sourcingSvc := usecase.NewSourcingService(agentRepo, appRepo, jobRepo, talentDir, aicl, producer, cfg.ScanMatchThreshold)

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, "clearpath-workers", sourcingSvc, cfg.ConsumerMaxConcurrency)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	slog.Info("worker started, waiting for tasks")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
