package memory

import (
	"context"
	"sync/atomic"
)

type KeySequence struct {
	n atomic.Int64
}

// NewKeySequence returns a sequence whose first value is start.
func NewKeySequence(start int64) *KeySequence {
	s := &KeySequence{}
	s.n.Store(start - 1)
	return s
}

func (s *KeySequence) Next(context.Context) (int64, error) {
	return s.n.Add(1), nil
}
