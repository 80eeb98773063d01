// Command server starts the ClearPath Recruit HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearpathhq/clearpath/internal/adapter/ai"
	"github.com/clearpathhq/clearpath/internal/adapter/httpserver"
	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/adapter/queue/redpanda"
	"github.com/clearpathhq/clearpath/internal/adapter/repo/postgres"
	"github.com/clearpathhq/clearpath/internal/adapter/resumestore"
	"github.com/clearpathhq/clearpath/internal/app"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/service/ratelimiter"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	appRepo := postgres.NewApplicationRepo(pool)
	agentRepo := postgres.NewAgentRepo(pool)

	resumes, err := resumestore.NewLocal(cfg.ResumeDir)
	if err != nil {
		slog.Error("resume store init failed", slog.Any("error", err))
		os.Exit(1)
	}

	aiLimiter := ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
		"ai_chat": ratelimiter.NewBucketConfigFromPerMinute(cfg.AIRatePerMin),
	})
	aicl := ai.New(cfg, aiLimiter)

	// Usecases
	authSvc := usecase.NewAuthService(userRepo)
	jobSvc := usecase.NewJobService(jobRepo)
	appSvc := usecase.NewApplicationService(appRepo, jobRepo, userRepo, resumes, producer)
	repSvc := usecase.NewReputationService(appRepo, rdb, cfg.ReputationCacheTTL)
	assistSvc := usecase.NewAssistService(aicl)
	// The server enqueues scans and manages agents; the directory source is
	// only needed worker-side, so it stays nil here.
	sourcingSvc := usecase.NewSourcingService(agentRepo, appRepo, jobRepo, nil, aicl, producer, cfg.ScanMatchThreshold)

	dbCheck, redisCheck, kafkaCheck := app.BuildReadinessChecks(pool, rdb, producer)

	sessions := httpserver.NewSessionManager(cfg)
	srv := httpserver.NewServer(cfg, sessions, authSvc, jobSvc, appSvc, repSvc, assistSvc, sourcingSvc, dbCheck, redisCheck, kafkaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
