package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	invkafka "github.com/campuscart/marketplace/internal/inventory/infrastructure/kafka"
	"github.com/campuscart/marketplace/pkg/idempotency"
	"github.com/campuscart/marketplace/pkg/logging"
	"github.com/campuscart/marketplace/pkg/shutdown"
	"github.com/campuscart/marketplace/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "stock-alerts", env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"), log)
	if err != nil {
		log.Error("tracing init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = tp.Shutdown(shutdownCtx)
	}()

	rdb := redis.NewClient(&redis.Options{Addr: env("REDIS_ADDR", "localhost:6379")})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 24*time.Hour)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
		GroupID: env("KAFKA_GROUP_ID", "stock-alerts"),
		Topic:   env("KAFKA_TOPIC", "marketplace.events"),
	})
	defer reader.Close()

	consumer := invkafka.NewAlertConsumer(log, reader, idem)

	log.Info("stock alerts consumer starting")
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("stock alerts consumer stopped")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
