package clicks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]Increment
	err     error
}

func (w *recordingWriter) AddDaily(_ context.Context, incs []Increment) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, incs)
	return w.err
}

func (w *recordingWriter) totals() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := map[string]int64{}
	for _, b := range w.batches {
		for _, inc := range b {
			out[inc.Key+"@"+inc.Day.Format(time.DateOnly)] += inc.Count
		}
	}
	return out
}

func TestAggregator_FoldsAndFlushesOnShutdown(t *testing.T) {
	w := &recordingWriter{}
	a := NewAggregator(w, Options{FlushInterval: time.Hour})

	day1 := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = a.RecordClick(context.Background(), "abc", day1)
	}
	_ = a.RecordClick(context.Background(), "abc", day2)
	_ = a.RecordClick(context.Background(), "xyz", day1)
	_ = a.RecordClick(context.Background(), "", day1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	got := w.totals()
	want := map[string]int64{
		"abc@2025-03-01": 3,
		"abc@2025-03-02": 1,
		"xyz@2025-03-01": 1,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %d, want %d", k, got[k], v)
		}
	}
}

func TestAggregator_FlushesAtMaxBatch(t *testing.T) {
	w := &recordingWriter{}
	a := NewAggregator(w, Options{FlushInterval: time.Hour, MaxBatchEvents: 2})
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_ = a.RecordClick(context.Background(), "abc", at)
	}
	_ = a.Shutdown(context.Background())

	w.mu.Lock()
	n := len(w.batches)
	w.mu.Unlock()
	if n != 2 {
		t.Errorf("expected 2 batches, got %d", n)
	}
	if got := w.totals()["abc@2025-03-01"]; got != 4 {
		t.Errorf("got total %d, want 4", got)
	}
}

func TestAggregator_FlushErrorDoesNotStopLoop(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	a := NewAggregator(w, Options{FlushInterval: time.Hour, MaxBatchEvents: 1})
	at := time.Now()

	_ = a.RecordClick(context.Background(), "a", at)
	_ = a.RecordClick(context.Background(), "b", at)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.batches) != 2 {
		t.Errorf("expected 2 attempted batches, got %d", len(w.batches))
	}
}

func TestDayKeyRoundTrip(t *testing.T) {
	in := time.Date(2024, 2, 29, 17, 45, 0, 0, time.FixedZone("X", -5*3600))
	got := fromDayKey(toDayKey(in))
	want := time.Date(2024, 2, 29, 22, 45, 0, 0, time.UTC)
	want = time.Date(want.Year(), want.Month(), want.Day(), 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
