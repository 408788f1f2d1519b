package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/clicks"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClickStatsRepository struct {
	pool *pgxpool.Pool
}

func NewClickStatsRepository(p *db.Postgres) (*ClickStatsRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &ClickStatsRepository{pool: p.Pool}, nil
}

const addDailySQL = `
INSERT INTO link_clicks_daily (short_key, day, count)
VALUES ($1, $2, $3)
ON CONFLICT (short_key, day) DO UPDATE SET count = link_clicks_daily.count + EXCLUDED.count`

func (r *ClickStatsRepository) IncDaily(ctx context.Context, key string, at time.Time) error {
	_, err := r.pool.Exec(ctx, addDailySQL, key, toDate(at), int64(1))
	return err
}

// AddDaily sends all increments as one pipelined batch.
func (r *ClickStatsRepository) AddDaily(ctx context.Context, incs []clicks.Increment) error {
	if len(incs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, inc := range incs {
		batch.Queue(addDailySQL, inc.Key, toDate(inc.Day), inc.Count)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *ClickStatsRepository) GetDaily(ctx context.Context, key string, from, to time.Time) ([]links.DailyCount, error) {
	rows, err := r.pool.Query(ctx, `
SELECT day, count
FROM link_clicks_daily
WHERE short_key = $1 AND day BETWEEN $2 AND $3
ORDER BY day`,
		key, toDate(from), toDate(to))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (links.DailyCount, error) {
		var (
			day   pgtype.Date
			count int64
		)
		if err := row.Scan(&day, &count); err != nil {
			return links.DailyCount{}, err
		}
		return links.DailyCount{
			Date:  day.Time.Format(time.DateOnly),
			Count: count,
		}, nil
	})
}

func (r *ClickStatsRepository) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM link_clicks_daily WHERE short_key = $1`, key)
	return err
}

func toDate(v time.Time) pgtype.Date {
	y, m, d := v.UTC().Date()
	return pgtype.Date{
		Time:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}
