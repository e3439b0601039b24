// obsdemo-api — HTTP сервис для демонстрации наблюдаемости.
//
// Каждый запрос к /api/demo/* выполняется в собственном correlation scope:
// request id попадает в логи, метрики, span и тело ответа.
//
//   - Хранилище: Postgres (DB_URL) или память
//   - События user.created: RabbitMQ (RABBITMQ_URL), опционально
//   - Периодический отчёт demo.users.count: cron (STATS_SCHEDULE)
//   - /healthz, /metrics (Prometheus)
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/obsdemo/internal/api"
	"github.com/shaiso/obsdemo/internal/config"
	"github.com/shaiso/obsdemo/internal/instrument"
	"github.com/shaiso/obsdemo/internal/mq"
	"github.com/shaiso/obsdemo/internal/repo"
	"github.com/shaiso/obsdemo/internal/scheduler"
	"github.com/shaiso/obsdemo/internal/service"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting obsdemo-api", "service", cfg.ServiceName)

	if err := run(cfg, logger); err != nil {
		logger.Error("obsdemo-api failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Трассировка
	tracing, err := telemetry.SetupTracing(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()

	// Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)
	httpMetrics := telemetry.NewHTTPMetrics(reg)

	in := instrument.New(instrument.Config{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracing.Tracer,
	})

	// Хранилище
	var store service.UserStore
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		pg := repo.NewPostgresUserRepo(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		store = pg
		logger.Info("connected to database")
	} else {
		store = repo.NewMemoryUserRepo()
		logger.Info("using in-memory user store")
	}

	// RabbitMQ
	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.NewConnection(ctx, mq.ConnectionConfig{
			URL:     cfg.RabbitMQURL,
			Logger:  logger,
			Metrics: metrics,
			Backoff: cfg.MQBackoff(),
		})
		if err != nil {
			logger.Warn("RabbitMQ not available, events disabled", "error", err)
		} else {
			defer mqConn.Close()

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			events = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	svc := service.New(service.Config{
		Store:             store,
		Chaos:             service.NewRandomChaos(cfg.ChaosSeed),
		Events:            events,
		Logger:            logger,
		CreateFailureRate: cfg.CreateFailureRate,
		ErrorRate:         cfg.ErrorRate,
	})

	// Периодический отчёт
	if cfg.StatsSchedule != "" {
		reporter, err := scheduler.New(scheduler.Config{
			Stats:        svc,
			Instrumenter: in,
			Logger:       logger,
			Schedule:     cfg.StatsSchedule,
		})
		if err != nil {
			return fmt.Errorf("create reporter: %w", err)
		}
		reporter.Start(ctx)
		defer reporter.Stop()
	}

	handler := api.NewHandler(api.Config{
		Service:      svc,
		Instrumenter: in,
		Logger:       logger,
		Tracer:       tracing.Tracer,
		HTTPMetrics:  httpMetrics,
		ServiceName:  cfg.ServiceName,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
