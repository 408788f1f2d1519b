package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/events"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	MaxWait time.Duration
}

func NewReader(cfg ReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
}

type ConsumerOptions struct {
	BatchSize    int
	BatchWait    time.Duration
	OperationTTL time.Duration
	Backoff      time.Duration
}

// ClickConsumer folds ClickRecorded events into daily counters. Offsets are
// committed only after the batch is written, so delivery is at-least-once.
type ClickConsumer struct {
	reader MessageReader
	writer clicks.BatchWriter
	opts   ConsumerOptions
}

func NewClickConsumer(reader MessageReader, writer clicks.BatchWriter, opts ConsumerOptions) *ClickConsumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.BatchWait <= 0 {
		opts.BatchWait = 200 * time.Millisecond
	}
	if opts.OperationTTL <= 0 {
		opts.OperationTTL = 5 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &ClickConsumer{reader: reader, writer: writer, opts: opts}
}

// Run consumes until ctx is cancelled.
func (c *ClickConsumer) Run(ctx context.Context) error {
	for {
		batch, err := c.fetchBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("failed to fetch kafka message", zap.Error(err))
			if !sleep(ctx, c.opts.Backoff) {
				return nil
			}
			continue
		}

		for {
			err := c.processBatch(ctx, batch)
			if err == nil {
				break
			}
			logger.Error("failed to process click batch", zap.Error(err), zap.Int("messages", len(batch)))
			if !sleep(ctx, c.opts.Backoff) {
				return nil
			}
		}
	}
}

// fetchBatch blocks for the first message, then collects more until the batch
// is full or BatchWait has passed.
func (c *ClickConsumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []kafka.Message{first}

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.BatchWait)
	defer cancel()
	for len(batch) < c.opts.BatchSize {
		msg, err := c.reader.FetchMessage(waitCtx)
		if err != nil {
			break
		}
		batch = append(batch, msg)
	}
	return batch, nil
}

func (c *ClickConsumer) processBatch(ctx context.Context, batch []kafka.Message) error {
	last := batch[len(batch)-1]
	spanCtx, span := otel.Tracer("click-consumer").Start(
		contextFromHeaders(ctx, last.Headers),
		"kafka.consume.click_recorded",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", last.Topic),
			attribute.String("messaging.operation", "process"),
			attribute.Int("messaging.batch.message_count", len(batch)),
		),
	)
	defer span.End()

	incs := foldEvents(batch)

	opCtx, cancel := context.WithTimeout(spanCtx, c.opts.OperationTTL)
	defer cancel()

	if len(incs) > 0 {
		if err := c.writer.AddDaily(opCtx, incs); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "write click counters failed")
			return err
		}
	}

	if err := c.reader.CommitMessages(opCtx, batch...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit kafka offset failed")
		return err
	}
	return nil
}

func foldEvents(batch []kafka.Message) []clicks.Increment {
	type dayKey struct {
		key string
		day string
	}
	counts := make(map[dayKey]int64, len(batch))
	days := make(map[string]time.Time)

	for _, msg := range batch {
		ev, at, ok := decodeEvent(msg)
		if !ok {
			continue
		}
		d := at.Format(time.DateOnly)
		counts[dayKey{key: ev.Key, day: d}]++
		if _, seen := days[d]; !seen {
			y, m, dd := at.Date()
			days[d] = time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
		}
	}

	out := make([]clicks.Increment, 0, len(counts))
	for k, n := range counts {
		out = append(out, clicks.Increment{Key: k.key, Day: days[k.day], Count: n})
	}
	return out
}

// decodeEvent reports ok=false for payloads that can never be processed;
// those are logged and committed past.
func decodeEvent(msg kafka.Message) (events.ClickRecorded, time.Time, bool) {
	var ev events.ClickRecorded
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Warn("invalid click event payload, skipping",
			zap.Error(err),
			zap.ByteString("payload", msg.Value),
		)
		return ev, time.Time{}, false
	}
	if strings.TrimSpace(ev.Key) == "" {
		logger.Warn("click event missing key, skipping", zap.String("event_id", ev.EventID))
		return ev, time.Time{}, false
	}

	occurredAt := msg.Time.UTC()
	if strings.TrimSpace(ev.OccurredAt) != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ev.OccurredAt)
		if err != nil {
			logger.Warn("invalid event occurredAt, using kafka timestamp",
				zap.Error(err),
				zap.String("event_id", ev.EventID),
			)
		} else {
			occurredAt = parsed.UTC()
		}
	}
	return ev, occurredAt, true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
