package keys

import (
	"context"
	"fmt"

	"github.com/IgorGrieder/shortlinks/internal/processing/base62"
	"github.com/sqids/sqids-go"
)

// SequenceStart is 62^4, the first number whose base62 form has five
// characters. Sequences start here so no key is shorter than that.
const SequenceStart int64 = 14_776_336

// SequenceSource hands out increasing non-negative numbers shared by every
// API instance (a Redis counter or a database sequence).
type SequenceSource interface {
	Next(ctx context.Context) (int64, error)
}

// NumberEncoder turns a sequence number into a key.
type NumberEncoder interface {
	EncodeNumber(n int64) (string, error)
}

type Base62Encoder struct{}

func (Base62Encoder) EncodeNumber(n int64) (string, error) {
	return base62.Encode(n)
}

// SqidsEncoder shuffles consecutive numbers so keys do not look sequential.
type SqidsEncoder struct {
	sq *sqids.Sqids
}

func NewSqidsEncoder(alphabet string, minLength int) (*SqidsEncoder, error) {
	opts := sqids.Options{}
	if alphabet != "" {
		opts.Alphabet = alphabet
	}
	if minLength > 0 {
		opts.MinLength = uint8(minLength)
	}

	sq, err := sqids.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init sqids: %w", err)
	}
	return &SqidsEncoder{sq: sq}, nil
}

func (e *SqidsEncoder) EncodeNumber(n int64) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("sqids: negative value %d", n)
	}
	return e.sq.Encode([]uint64{uint64(n)})
}

// SequenceGenerator derives keys from a shared counter. Uniqueness comes from
// the counter; a clash with a custom key is left to the insert conflict path.
type SequenceGenerator struct {
	source  SequenceSource
	encoder NumberEncoder
}

func NewSequenceGenerator(source SequenceSource, encoder NumberEncoder) *SequenceGenerator {
	if encoder == nil {
		encoder = Base62Encoder{}
	}
	return &SequenceGenerator{source: source, encoder: encoder}
}

func (g *SequenceGenerator) Generate(ctx context.Context) (string, error) {
	n, err := g.source.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next sequence value: %w", err)
	}
	key, err := g.encoder.EncodeNumber(n)
	if err != nil {
		return "", err
	}
	keysGenerated.WithLabelValues("sequence").Inc()
	return key, nil
}
