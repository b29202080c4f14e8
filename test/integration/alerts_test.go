//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	invdomain "github.com/campuscart/marketplace/internal/inventory/domain"
	invkafka "github.com/campuscart/marketplace/internal/inventory/infrastructure/kafka"
	invpg "github.com/campuscart/marketplace/internal/inventory/infrastructure/postgres"
	orderpg "github.com/campuscart/marketplace/internal/order/infrastructure/postgres"
	"github.com/campuscart/marketplace/pkg/idempotency"
	"github.com/campuscart/marketplace/pkg/logging"
	"github.com/campuscart/marketplace/pkg/outbox"
)

// The whole event path: a waste adjustment drops stock below threshold, the
// relay publishes the outbox row to kafka, and the alert consumer raises a
// low-stock alert exactly once.
func TestStockAlertPipeline(t *testing.T) {
	ctx := context.Background()
	log := logging.New()

	kafkaContainer, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaContainer.Terminate(ctx) })

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(ctx) })

	redisURL, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(redisURL)
	require.NoError(t, err)
	rdb := goredis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	const topic = "marketplace.events.test"

	// Drop the item from 12 to 3, below its threshold of 5.
	_, vendorID, _, itemID := seed(t, 12)
	invRepo := invpg.NewRepository(log, pool)
	_, err = invRepo.Adjust(ctx, vendorID, itemID, invdomain.ChangeWaste, 9, "spoiled batch")
	require.NoError(t, err)

	writer := &segkafka.Writer{
		Addr:                   segkafka.TCP(brokers...),
		AllowAutoTopicCreation: true,
	}
	t.Cleanup(func() { _ = writer.Close() })

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool),
		outbox.NewDispatcher(log, writer, topic), "relay-test")
	go func() { _ = relay.Run(relayCtx) }()

	reader := segkafka.NewReader(segkafka.ReaderConfig{
		Brokers: brokers,
		GroupID: "stock-alerts-test",
		Topic:   topic,
	})
	t.Cleanup(func() { _ = reader.Close() })

	idem := idempotency.NewStore(rdb, time.Hour)
	consumer := invkafka.NewAlertConsumer(log, reader, idem)

	alerts := make(chan invdomain.StockChanged, 4)
	consumer.Notify = func(_ context.Context, event invdomain.StockChanged, level invdomain.AlertLevel) {
		assert.Equal(t, invdomain.AlertLowStock, level)
		alerts <- event
	}

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() { _ = consumer.Run(consumerCtx) }()

	select {
	case event := <-alerts:
		assert.Equal(t, itemID, event.ItemID)
		assert.Equal(t, 3, event.NewStock)
		assert.Equal(t, invdomain.ChangeWaste, event.ChangeType)
	case <-time.After(60 * time.Second):
		t.Fatal("no alert received")
	}

	// No duplicate alert for the same offset.
	select {
	case event := <-alerts:
		t.Fatalf("unexpected second alert for item %d", event.ItemID)
	case <-time.After(3 * time.Second):
	}
}
