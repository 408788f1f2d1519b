package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const linkColumns = `short_key, target_url, owner_id, created_at, updated_at, click_count, active, expires_at`

type LinksRepository struct {
	pool *pgxpool.Pool
}

type linkRow struct {
	ShortKey   string     `db:"short_key"`
	TargetURL  string     `db:"target_url"`
	OwnerID    string     `db:"owner_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	ClickCount int64      `db:"click_count"`
	Active     bool       `db:"active"`
	ExpiresAt  *time.Time `db:"expires_at"`
}

func NewLinksRepository(p *db.Postgres) (*LinksRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &LinksRepository{pool: p.Pool}, nil
}

func (r *LinksRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE short_key = $1)`, key).Scan(&exists)
	return exists, err
}

func (r *LinksRepository) Insert(ctx context.Context, link *links.Link) error {
	if link == nil {
		return errors.New("link is nil")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO links (`+linkColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		link.Key,
		link.TargetURL,
		link.OwnerID,
		link.CreatedAt.UTC(),
		link.UpdatedAt.UTC(),
		link.ClickCount,
		link.Active,
		utcPtr(link.ExpiresAt),
	)
	if err == nil {
		return nil
	}

	if isUniqueViolation(err) {
		return links.ErrKeyTaken
	}
	return err
}

func (r *LinksRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM links WHERE short_key = $1`, key)
	if err != nil {
		return nil, err
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[linkRow])
	if err == nil {
		return mapLinkRow(row), nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, links.ErrNotFound
	}
	return nil, err
}

func (r *LinksRepository) ResolveAndIncClick(ctx context.Context, key string, at time.Time) (*links.Link, error) {
	rows, err := r.pool.Query(ctx, `
UPDATE links
SET click_count = click_count + 1
WHERE short_key = $1
  AND active
  AND (expires_at IS NULL OR expires_at > $2)
RETURNING `+linkColumns, key, at.UTC())
	if err != nil {
		return nil, err
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[linkRow])
	if err == nil {
		return mapLinkRow(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Nothing was counted; work out which refusal applies.
	existing, findErr := r.FindByKey(ctx, key)
	if findErr != nil {
		return nil, findErr
	}
	if existing.Active && existing.ExpiredAt(at) {
		return nil, links.ErrExpired
	}
	return nil, links.ErrNotFound
}

func (r *LinksRepository) Update(ctx context.Context, link *links.Link) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE links
SET target_url = $2, active = $3, expires_at = $4, updated_at = $5
WHERE short_key = $1`,
		link.Key,
		link.TargetURL,
		link.Active,
		utcPtr(link.ExpiresAt),
		link.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) DeleteByKey(ctx context.Context, key string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE short_key = $1`, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepository) ListByOwner(ctx context.Context, ownerID string, page links.Page) ([]links.Link, error) {
	return r.List(ctx, links.ListFilter{OwnerID: ownerID, Page: page})
}

func (r *LinksRepository) List(ctx context.Context, filter links.ListFilter) ([]links.Link, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[linkRow])
	if err != nil {
		return nil, fmt.Errorf("scan links: %w", err)
	}

	out := make([]links.Link, 0, len(found))
	for _, row := range found {
		out = append(out, *mapLinkRow(row))
	}
	return out, nil
}

func buildListQuery(filter links.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != "" {
		where = append(where, "owner_id = "+arg(filter.OwnerID))
	}
	if filter.Active != nil {
		where = append(where, "active = "+arg(*filter.Active))
	}
	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		clause := "short_key ILIKE " + p + " OR target_url ILIKE " + p
		if len(filter.SearchOwnerIDs) > 0 {
			clause += " OR owner_id = ANY(" + arg(filter.SearchOwnerIDs) + ")"
		}
		where = append(where, "("+clause+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + linkColumns + " FROM links")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	page := filter.Page.Normalize()
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	b.WriteString(" LIMIT " + arg(page.Limit) + " OFFSET " + arg(page.Offset))

	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func mapLinkRow(row linkRow) *links.Link {
	return &links.Link{
		Key:        row.ShortKey,
		TargetURL:  row.TargetURL,
		OwnerID:    row.OwnerID,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
		ClickCount: row.ClickCount,
		Active:     row.Active,
		ExpiresAt:  utcPtr(row.ExpiresAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
