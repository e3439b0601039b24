// obsdemo-auditor — читает события user.created из RabbitMQ.
//
// Каждое событие обрабатывается в correlation scope с request id
// запроса, который создал пользователя, и продолжает его trace.
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

	"github.com/shaiso/obsdemo/internal/config"
	"github.com/shaiso/obsdemo/internal/mq"
	"github.com/shaiso/obsdemo/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting obsdemo-auditor")

	if err := run(cfg, logger); err != nil {
		logger.Error("obsdemo-auditor failed", "error", err)
		os.Exit(1)
	}
	logger.Info("obsdemo-auditor stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(reg)

	mqURL := cfg.RabbitMQURL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(ctx, mq.ConnectionConfig{
		URL:     mqURL,
		Logger:  logger,
		Metrics: metrics,
		Backoff: cfg.MQBackoff(),
	})
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}
	logger.Info("RabbitMQ connected", "topology", mq.TopologyInfo())

	consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueUsersCreated),
		Prefetch: 10,
		Handler:  mq.NewAuditHandler(metrics, tracing.Tracer),
	})

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:              cfg.AuditorAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.AuditorAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	consumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
