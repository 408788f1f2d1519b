package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// KeySequence is a shared INCR counter for sequence-derived keys. The counter
// is seeded once so the first value is start.
type KeySequence struct {
	client redis.Cmdable
	key    string
	start  int64
}

func NewKeySequence(client redis.Cmdable, key string, start int64) *KeySequence {
	if key == "" {
		key = "shortlinks:key_seq"
	}
	return &KeySequence{client: client, key: key, start: start}
}

func (s *KeySequence) Next(ctx context.Context) (int64, error) {
	if err := s.client.SetNX(ctx, s.key, s.start-1, 0).Err(); err != nil {
		return 0, err
	}
	return s.client.Incr(ctx, s.key).Result()
}
