package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/db"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepository struct {
	pool *pgxpool.Pool
}

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func NewUsersRepository(p *db.Postgres) (*UsersRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &UsersRepository{pool: p.Pool}, nil
}

func (r *UsersRepository) Insert(ctx context.Context, user *users.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, username, email, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return users.ErrUsernameTaken
	}
	return err
}

func (r *UsersRepository) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.findOne(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`, username)
}

func (r *UsersRepository) FindByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *UsersRepository) findOne(ctx context.Context, query string, arg string) (*users.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, err
	}

	return &users.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func (r *UsersRepository) SearchIDsByUsername(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id FROM users
WHERE username ILIKE $1
ORDER BY username
LIMIT $2`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
