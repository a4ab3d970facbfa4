package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dogwalk/internal/broker/kafka"
	"dogwalk/internal/config"
	"dogwalk/internal/logging"
	"dogwalk/internal/service"
)

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if !cfg.Kafka.Enabled() {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		logger.Info("metrics listening", slog.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.WalkEventsTopic, cfg.Kafka.ConsumerGroup)
	defer consumer.Close()

	w := newWorker(service.NewNotificationService(logger), logger)
	logger.Info("consuming walk events",
		slog.String("topic", cfg.Kafka.WalkEventsTopic),
		slog.String("group", cfg.Kafka.ConsumerGroup))

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		started := time.Now()
		err := consumer.ConsumeWalkEvents(ctx, w.handle, w.invalid)
		if ctx.Err() != nil {
			logger.Info("shutting down consumer")
			return
		}
		if time.Since(started) > maxBackoff {
			backoff = time.Second
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("consume failed, backing off",
				slog.String("error", err.Error()),
				slog.Duration("backoff", backoff))
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
