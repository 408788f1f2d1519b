package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/events"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ClickPublisher sends one ClickRecorded event per redirect, keyed by short
// key so a key's clicks stay on one partition.
type ClickPublisher struct {
	writer       MessageWriter
	topic        string
	writeTimeout time.Duration
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewClickPublisher(writer MessageWriter, topic string, writeTimeout time.Duration) *ClickPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &ClickPublisher{writer: writer, topic: topic, writeTimeout: writeTimeout}
}

func (p *ClickPublisher) RecordClick(ctx context.Context, key string, at time.Time) error {
	ev := events.ClickRecorded{
		EventID:    uuid.NewString(),
		Key:        key,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	ctx, span := otel.Tracer("click-publisher").Start(
		ctx,
		"kafka.publish.click_recorded",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message.id", ev.EventID),
			attribute.String("messaging.kafka.message_key", key),
		),
	)
	defer span.End()

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    at.UTC(),
		Headers: injectHeaders(ctx),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "kafka publish failed")
		return fmt.Errorf("publish click event: %w", err)
	}
	return nil
}

func (p *ClickPublisher) Close() error {
	return p.writer.Close()
}
