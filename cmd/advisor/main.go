package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpadapter "github.com/couchcryptid/retrofit-advisor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/retrofit-advisor/internal/adapter/kafka"
	"github.com/couchcryptid/retrofit-advisor/internal/adapter/postgres"
	"github.com/couchcryptid/retrofit-advisor/internal/adapter/predictor"
	redisadapter "github.com/couchcryptid/retrofit-advisor/internal/adapter/redis"
	"github.com/couchcryptid/retrofit-advisor/internal/advisor"
	"github.com/couchcryptid/retrofit-advisor/internal/config"
	"github.com/couchcryptid/retrofit-advisor/internal/dashboard"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
	"github.com/couchcryptid/retrofit-advisor/internal/profile"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// outboxCapacity bounds events queued for the event stream.
const outboxCapacity = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("advisor failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Error("close error", "error", err)
			}
		}
	}()
	readiness := []sharedobs.ReadinessChecker{}

	// Event stream (feature-flagged via KAFKA_ENABLED).
	var publisher advisor.Publisher = advisor.LogPublisher{Logger: logger}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		closers = append(closers, writer.Close)
		logger.Info("kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("kafka events disabled, logging events instead")
	}
	outbox := advisor.NewOutbox(publisher, outboxCapacity, logger, metrics)

	// Profile persistence: Redis when configured, otherwise process memory.
	var kv profile.KV = profile.NewMemoryKV()
	if cfg.RedisAddr != "" {
		store, err := redisadapter.NewStore(ctx, cfg)
		if err != nil {
			return err
		}
		kv = store
		readiness = append(readiness, store)
		closers = append(closers, store.Close)
		logger.Info("redis profile store enabled", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else {
		logger.Info("redis not configured, profiles kept in memory")
	}
	profiles := profile.NewStore(kv, logger)

	assessorOpts := []advisor.Option{advisor.WithEvents(outbox)}

	// Remote analysis service (feature-flagged via PREDICTOR_ENABLED / PREDICTOR_URL).
	if cfg.PredictorEnabled {
		client := predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout, metrics, logger)
		assessorOpts = append(assessorOpts, advisor.WithAnalyzer(predictor.NewCachedAnalyzer(client, cfg.PredictorCacheSize, metrics)))
		logger.Info("analysis service enabled", "url", cfg.PredictorURL, "timeout", cfg.PredictorTimeout, "cache_size", cfg.PredictorCacheSize)
	} else {
		logger.Info("analysis service disabled, using local heuristic")
	}

	// Assessment history (enabled by DATABASE_URL).
	var history httpadapter.History
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		history = db
		assessorOpts = append(assessorOpts, advisor.WithRecorder(db))
		readiness = append(readiness, db)
		closers = append(closers, db.Close)
		logger.Info("assessment history enabled")
	}

	assessor := advisor.New(logger, metrics, assessorOpts...)

	saved, err := profiles.Load(ctx)
	if err != nil {
		logger.Warn("failed to load saved profile, using defaults", "error", err)
	}
	session := dashboard.NewSession(saved.Configuration, assessor, logger, metrics,
		dashboard.WithInterval(cfg.TickInterval),
		dashboard.WithStore(profiles),
		dashboard.WithOnboardingComplete(saved.OnboardingComplete),
		dashboard.WithEvents(outbox),
	)
	readiness = append([]sharedobs.ReadinessChecker{session}, readiness...)

	api := httpadapter.NewAPI(assessor, session, history, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, httpadapter.AllReady(readiness...), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var wg sync.WaitGroup

	// Start dashboard session.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Run(ctx); err != nil {
			logger.Error("dashboard session error", "error", err)
		}
	}()

	// Start event outbox.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := outbox.Run(ctx); err != nil {
			logger.Error("event outbox error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()

	logger.Info("shutdown complete")
	return nil
}
