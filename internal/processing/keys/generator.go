package keys

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Draw pool for random keys. Letters come before digits here, unlike the
// base62 codec alphabet; the two value spaces are unrelated.
const drawAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Bytes at or above this value are rejected so every symbol is equally likely.
const maxUnbiasedByte = 256 - 256%len(drawAlphabet)

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 100
	DefaultMaxLength   = 16
)

var ErrKeySpaceExhausted = errors.New("no free key up to max length")

// ExistenceChecker answers whether a key is already assigned to a record.
type ExistenceChecker interface {
	ExistsByKey(ctx context.Context, key string) (bool, error)
}

type ExistenceCheckerFunc func(ctx context.Context, key string) (bool, error)

func (f ExistenceCheckerFunc) ExistsByKey(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

type Options struct {
	Length      int
	MaxAttempts int
	MaxLength   int
	// Rand defaults to crypto/rand.
	Rand io.Reader
}

// Generator draws random keys until one is not in use. After MaxAttempts
// collisions at a length it moves on to length+1.
type Generator struct {
	checker     ExistenceChecker
	length      int
	maxAttempts int
	maxLength   int
	rand        io.Reader
}

func NewGenerator(checker ExistenceChecker, opts Options) *Generator {
	if opts.Length <= 0 {
		opts.Length = DefaultLength
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.MaxLength < opts.Length {
		opts.MaxLength = opts.Length
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}

	return &Generator{
		checker:     checker,
		length:      opts.Length,
		maxAttempts: opts.MaxAttempts,
		maxLength:   opts.MaxLength,
		rand:        opts.Rand,
	}
}

func (g *Generator) Generate(ctx context.Context) (string, error) {
	return g.GenerateWithLength(ctx, g.length)
}

// GenerateWithLength returns a key of at least length characters that was not
// in use when checked. The key is not reserved: callers must still handle a
// uniqueness conflict on insert.
func (g *Generator) GenerateWithLength(ctx context.Context, length int) (string, error) {
	if length <= 0 {
		length = g.length
	}

	// An explicit length above the configured maximum is still honoured once.
	maxLength := max(g.maxLength, length)

	for ; length <= maxLength; length++ {
		for attempt := 0; attempt < g.maxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			key, err := g.draw(length)
			if err != nil {
				return "", fmt.Errorf("draw key: %w", err)
			}

			taken, err := g.checker.ExistsByKey(ctx, key)
			if err != nil {
				return "", fmt.Errorf("check key existence: %w", err)
			}
			if !taken {
				keysGenerated.WithLabelValues(strconv.Itoa(length)).Inc()
				return key, nil
			}
			keyCollisions.Inc()
		}
		lengthEscalations.Inc()
	}

	return "", fmt.Errorf("%w (max length %d)", ErrKeySpaceExhausted, maxLength)
}

func (g *Generator) draw(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			out = append(out, drawAlphabet[int(b)%len(drawAlphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
