package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher publishes locked outbox events to kafka. Writes go through a
// circuit breaker so a dead broker fails fast instead of stalling the relay.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	breaker  *gobreaker.CircuitBreaker

	// Observe, when set, receives "ok" or "failed" per dispatch.
	Observe func(result string)
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "outbox-kafka",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Dispatcher{log: log, producer: producer, topic: topic, breaker: cb}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := make([]kafka.Header, 0, len(event.Headers)+2)
	for k, v := range event.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers, kafka.Header{Key: "event_type", Value: []byte(event.Type)})
	if event.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(event.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}

	_, err := d.breaker.Execute(func() (any, error) {
		return nil, d.producer.WriteMessages(ctx, msg)
	})
	if err != nil {
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "err", err)
		if d.Observe != nil {
			d.Observe("failed")
		}
		return err
	}
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type)
	if d.Observe != nil {
		d.Observe("ok")
	}
	return nil
}
