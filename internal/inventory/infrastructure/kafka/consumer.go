package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuscart/marketplace/internal/inventory/domain"
	"github.com/campuscart/marketplace/pkg/idempotency"
	"github.com/campuscart/marketplace/pkg/tracing"
)

// AlertConsumer watches stock events and raises low-stock alerts. Messages
// are deduplicated in redis by (topic, partition, offset) so a rebalance or
// redelivery never alerts twice for the same mutation.
type AlertConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	idem   *idempotency.Store
	tracer trace.Tracer

	// Notify receives each alert; the default implementation logs it. A
	// push channel (mail, chat webhook) plugs in here.
	Notify func(ctx context.Context, event domain.StockChanged, level domain.AlertLevel)
}

func NewAlertConsumer(log *slog.Logger, reader *kafka.Reader, idem *idempotency.Store) *AlertConsumer {
	c := &AlertConsumer{
		log:    log,
		reader: reader,
		idem:   idem,
		tracer: otel.Tracer("stock-alerts"),
	}
	c.Notify = c.logAlert
	return c
}

func (c *AlertConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("fetch message error", "err", err)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "HandleStockEvent")
		c.handle(msgCtx, msg)
		span.End()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit message error", "err", err)
		}
	}
}

func (c *AlertConsumer) handle(ctx context.Context, msg kafka.Message) {
	if eventType(msg) != "StockChanged" {
		return
	}

	key := c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check error", "err", err)
		return
	}
	if seen {
		c.log.Debug("duplicate message skipped", "topic", msg.Topic, "offset", msg.Offset)
		return
	}

	var event domain.StockChanged
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error("malformed stock event", "err", err, "offset", msg.Offset)
		return
	}

	level, ok := domain.AlertFor(event.NewStock, event.LowStockThreshold)
	if !ok {
		return
	}
	c.Notify(ctx, event, level)
}

func (c *AlertConsumer) logAlert(_ context.Context, event domain.StockChanged, level domain.AlertLevel) {
	c.log.Warn("stock alert",
		"level", level,
		"item_id", event.ItemID,
		"item_name", event.ItemName,
		"restaurant_id", event.RestaurantID,
		"new_stock", event.NewStock,
		"threshold", event.LowStockThreshold,
	)
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
