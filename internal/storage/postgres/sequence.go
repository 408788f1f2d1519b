package postgres

import (
	"context"
	"errors"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KeySequence hands out values from link_key_seq for sequence-derived keys.
type KeySequence struct {
	pool *pgxpool.Pool
}

func NewKeySequence(p *db.Postgres) (*KeySequence, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &KeySequence{pool: p.Pool}, nil
}

func (s *KeySequence) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT nextval('link_key_seq')`).Scan(&n)
	return n, err
}
