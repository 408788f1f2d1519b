package links

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrExpired       = errors.New("link expired")
	ErrInvalidURL    = errors.New("invalid url")
	ErrKeyTaken      = errors.New("key taken")
	ErrInvalidKey    = errors.New("invalid key")
	ErrInvalidExpiry = errors.New("expiry must be in the future")
	ErrInvalidRange  = errors.New("invalid date range")
)

type LinkRepository interface {
	ExistsByKey(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, link *Link) error
	FindByKey(ctx context.Context, key string) (*Link, error)
	// ResolveAndIncClick returns ErrNotFound for a missing or inactive link and
	// ErrExpired for an active link past its expiry. Otherwise it increments the
	// click count once and returns the updated link.
	ResolveAndIncClick(ctx context.Context, key string, at time.Time) (*Link, error)
	Update(ctx context.Context, link *Link) error
	DeleteByKey(ctx context.Context, key string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, page Page) ([]Link, error)
	List(ctx context.Context, filter ListFilter) ([]Link, error)
}

type StatsRepository interface {
	IncDaily(ctx context.Context, key string, at time.Time) error
	GetDaily(ctx context.Context, key string, from, to time.Time) ([]DailyCount, error)
	DeleteByKey(ctx context.Context, key string) error
}

// ClickRecorder receives one call per successful redirect.
type ClickRecorder interface {
	RecordClick(ctx context.Context, key string, at time.Time) error
}

// OwnerSearcher finds the ids of users whose username contains query, so admin
// search can match links by owner.
type OwnerSearcher interface {
	SearchIDsByUsername(ctx context.Context, query string, limit int) ([]string, error)
}

type KeyGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type QRRenderer interface {
	RenderPNG(content string, size int) ([]byte, error)
}

// StatsClickRecorder writes clicks straight into the daily stats, used when no
// event stream is configured.
type StatsClickRecorder struct {
	Stats StatsRepository
}

func (r StatsClickRecorder) RecordClick(ctx context.Context, key string, at time.Time) error {
	return r.Stats.IncDaily(ctx, key, at)
}
