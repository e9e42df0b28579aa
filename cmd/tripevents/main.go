// Command tripevents tails the trip event topic and logs every trip
// transition. It is the audit side of the events the api publishes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/config"
	"github.com/chachabrian/carpool-backend/internal/events"
	"github.com/chachabrian/carpool-backend/internal/observability"
	applogger "github.com/chachabrian/carpool-backend/pkg/logger"
)

func main() {
	var (
		metricsAddr string
		group       string
	)
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.StringVar(&group, "group", "carpool-trip-audit", "kafka consumer group")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CARPOOL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := applogger.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.Kafka.Enabled() {
		logger.Fatal("kafka brokers and topic must be configured")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, group, logger)
	defer consumer.Close()

	logger.Info("consuming trip events",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", group),
	)

	err = consumer.Run(ctx, func(_ context.Context, ev events.TripEvent) error {
		observability.TripEventsConsumed.WithLabelValues(ev.Type).Inc()
		logger.Info("trip event",
			zap.String("type", ev.Type),
			zap.String("carpool_id", ev.CarpoolID),
			zap.String("request_id", ev.RequestID),
			zap.Time("at", ev.At),
		)
		return nil
	})
	if err != nil {
		logger.Error("consumer stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
