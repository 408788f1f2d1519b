package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
)

type ClickStatsRepository struct {
	mu     sync.Mutex
	counts map[string]map[string]int64 // key -> YYYY-MM-DD -> count
}

func NewClickStatsRepository() *ClickStatsRepository {
	return &ClickStatsRepository{counts: make(map[string]map[string]int64)}
}

func (r *ClickStatsRepository) IncDaily(_ context.Context, key string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(key, at, 1)
	return nil
}

func (r *ClickStatsRepository) AddDaily(_ context.Context, incs []clicks.Increment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inc := range incs {
		r.add(inc.Key, inc.Day, inc.Count)
	}
	return nil
}

func (r *ClickStatsRepository) add(key string, at time.Time, n int64) {
	days, ok := r.counts[key]
	if !ok {
		days = make(map[string]int64)
		r.counts[key] = days
	}
	days[at.UTC().Format(time.DateOnly)] += n
}

func (r *ClickStatsRepository) GetDaily(_ context.Context, key string, from, to time.Time) ([]links.DailyCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo := from.UTC().Format(time.DateOnly)
	hi := to.UTC().Format(time.DateOnly)

	var out []links.DailyCount
	for day, n := range r.counts[key] {
		if day >= lo && day <= hi {
			out = append(out, links.DailyCount{Date: day, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *ClickStatsRepository) DeleteByKey(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counts, key)
	return nil
}
