// Package kafka publishes order events to Kafka with franz-go.
//
// Each status change is one JSON record on the configured topic, keyed by
// order id so a partition sees an order's changes in version order. The
// W3C traceparent of the publishing span travels as a record header.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"warehouse/internal/core/ports"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// EventTypeOrderStatusChanged is the value of the "event-type" header.
const EventTypeOrderStatusChanged = "order.status_changed"

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher implements ports.EventPublisher.
type Publisher struct {
	client producer
	topic  string
	tracer trace.Tracer
}

// NewPublisher connects a producer to brokers.
//
// Example:
//
//	pub, err := kafka.NewPublisher([]string{"localhost:9092"}, "warehouse.order.changed")
//	if err != nil {
//	    return err
//	}
//	defer pub.Close()
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProduceRequestTimeout(10*time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ClientID("warehouse"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return newPublisher(client, topic), nil
}

func newPublisher(client producer, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		tracer: otel.Tracer("warehouse/kafka"),
	}
}

// orderStatusChangedMessage is the record value.
type orderStatusChangedMessage struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	Transition string    `json:"transition"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorRole  string    `json:"actor_role"`
	Version    uint64    `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublishOrderStatusChanged produces one record and waits for the broker ack.
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	ctx, span := p.tracer.Start(ctx, "kafka.PublishOrderStatusChanged", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination.name", p.topic),
		attribute.String("order.id", event.OrderID.String()),
	)

	value, err := json.Marshal(orderStatusChangedMessage{
		EventID:    uuid.NewString(),
		OrderID:    event.OrderID.String(),
		Transition: event.Transition.String(),
		From:       event.From.String(),
		To:         event.To.String(),
		ActorRole:  event.ActorRole.String(),
		Version:    event.Version,
		OccurredAt: event.At.UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return fmt.Errorf("encode order status changed: %w", err)
	}

	record := &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(event.OrderID.String()),
		Value:   value,
		Headers: append(traceHeaders(ctx), kgo.RecordHeader{Key: "event-type", Value: []byte(EventTypeOrderStatusChanged)}),
	}
	if err = p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "produce")
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the client.
func (p *Publisher) Close() {
	p.client.Close()
}

func traceHeaders(ctx context.Context) []kgo.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)

	traceparent, ok := carrier["traceparent"]
	if !ok {
		return nil
	}
	return []kgo.RecordHeader{{Key: "traceparent", Value: []byte(traceparent)}}
}

// NopPublisher drops events. It serves deployments without a broker.
type NopPublisher struct{}

func (NopPublisher) PublishOrderStatusChanged(context.Context, ports.OrderStatusChanged) error {
	return nil
}
