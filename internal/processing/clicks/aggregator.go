package clicks

import (
	"context"
	"sync"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Increment adds Count clicks to one key on one UTC day.
type Increment struct {
	Key   string
	Day   time.Time
	Count int64
}

// BatchWriter persists a batch of daily increments in one round trip.
type BatchWriter interface {
	AddDaily(ctx context.Context, incs []Increment) error
}

type Options struct {
	QueueSize      int
	FlushInterval  time.Duration
	MaxBatchEvents int
	FlushTimeout   time.Duration
}

// Aggregator folds clicks into per-key daily counters in memory and flushes
// them on a ticker or once MaxBatchEvents have accumulated. RecordClick never
// blocks: when the queue is full the click is dropped and counted.
type Aggregator struct {
	writer       BatchWriter
	queue        chan dayKey
	flushEvery   time.Duration
	maxBatch     int
	flushTimeout time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type dayKey struct {
	key string
	day int32 // YYYYMMDD (UTC)
}

func NewAggregator(writer BatchWriter, opts Options) *Aggregator {
	const (
		defaultQueueSize      = 100_000
		defaultFlushInterval  = 250 * time.Millisecond
		defaultMaxBatchEvents = 50_000
		defaultFlushTimeout   = 2 * time.Second
	)

	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.MaxBatchEvents <= 0 {
		opts.MaxBatchEvents = defaultMaxBatchEvents
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultFlushTimeout
	}

	a := &Aggregator{
		writer:       writer,
		queue:        make(chan dayKey, opts.QueueSize),
		flushEvery:   opts.FlushInterval,
		maxBatch:     opts.MaxBatchEvents,
		flushTimeout: opts.FlushTimeout,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	go a.loop()
	return a
}

func (a *Aggregator) RecordClick(_ context.Context, key string, at time.Time) error {
	if key == "" {
		return nil
	}

	select {
	case a.queue <- dayKey{key: key, day: toDayKey(at)}:
		clicksQueued.Inc()
	default:
		clicksDropped.Inc()
	}
	return nil
}

// Shutdown drains the queue and flushes what is pending.
func (a *Aggregator) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })

	select {
	case <-a.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Aggregator) loop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.flushEvery)
	defer ticker.Stop()

	pending := make(map[dayKey]int64)
	var events int

	flush := func() {
		if events == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.flushTimeout)
		if err := a.writer.AddDaily(ctx, toIncrements(pending)); err != nil {
			flushErrors.Inc()
			logger.Error("failed to flush click counters", zap.Error(err), zap.Int("events", events))
		}
		cancel()

		pending = make(map[dayKey]int64)
		events = 0
	}

	add := func(k dayKey) {
		pending[k]++
		events++
		if events >= a.maxBatch {
			flush()
		}
	}

	for {
		select {
		case k := <-a.queue:
			add(k)
		case <-ticker.C:
			flush()
		case <-a.stopCh:
			for drained := false; !drained; {
				select {
				case k := <-a.queue:
					add(k)
				default:
					drained = true
				}
			}
			flush()
			return
		}
	}
}

func toIncrements(pending map[dayKey]int64) []Increment {
	out := make([]Increment, 0, len(pending))
	for k, n := range pending {
		out = append(out, Increment{Key: k.key, Day: fromDayKey(k.day), Count: n})
	}
	return out
}

func toDayKey(t time.Time) int32 {
	y, m, d := t.UTC().Date()
	return int32(y*10000 + int(m)*100 + d)
}

func fromDayKey(day int32) time.Time {
	return time.Date(int(day/10000), time.Month((day/100)%100), int(day%100), 0, 0, 0, 0, time.UTC)
}
