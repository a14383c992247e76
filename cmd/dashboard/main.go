package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/cache"
	httpadapter "github.com/baylab/nitrogen-dashboard/internal/adapter/http"
	kafkaadapter "github.com/baylab/nitrogen-dashboard/internal/adapter/kafka"
	"github.com/baylab/nitrogen-dashboard/internal/adapter/registry"
	"github.com/baylab/nitrogen-dashboard/internal/adapter/source"
	"github.com/baylab/nitrogen-dashboard/internal/config"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/baylab/nitrogen-dashboard/internal/pipeline"
	"github.com/baylab/nitrogen-dashboard/internal/scheduler"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // flushing stderr

	if err := run(cfg, logger); err != nil {
		logger.Error("dashboard service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTelEndpoint, cfg.OTelServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	metrics := observability.NewMetrics()

	reg, err := registry.Load(cfg.ScenarioRegistry)
	if err != nil {
		return err
	}

	var tables pipeline.TableSource
	if cfg.RemoteData() {
		remote := source.NewRemoteSource(cfg.DataBaseURL, cfg.DataTimeout)
		logger.Info("reading scenario tables over http", zap.Stringer("source", remote))
		tables = remote
	} else {
		files := source.NewFileSource(cfg.DataDir)
		logger.Info("reading scenario tables from disk", zap.Stringer("source", files))
		tables = files
	}

	loader := pipeline.NewLoader(reg, tables, observability.Named(logger, "loader"), metrics)

	var opts []pipeline.Option
	if cfg.CacheEnabled {
		opts = append(opts, pipeline.WithCache(cache.New(cfg.CacheSize, cfg.CacheTTL, clockwork.NewRealClock())))
		logger.Info("dashboard cache enabled", zap.Int("size", cfg.CacheSize), zap.Duration("ttl", cfg.CacheTTL))
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, observability.Named(logger, "kafka"))
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	presenter := pipeline.NewPresenter(reg, loader, observability.Named(logger, "pipeline"), metrics, opts...)
	sched := scheduler.New(cfg.WarmSchedule, presenter, observability.Named(logger, "scheduler"), metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, presenter, observability.Named(logger, "http"))

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	if cfg.WarmOnStart {
		go sched.RunOnce(ctx)
	}
	if err := sched.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
