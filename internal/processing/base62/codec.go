// Package base62 maps non-negative integers to and from strings over the
// alphabet 0-9, a-z, A-Z, in that digit-value order.
package base62

import (
	"errors"
	"fmt"
	"math"
)

const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = int64(len(Alphabet))

var (
	ErrInvalidArgument  = errors.New("base62: invalid argument")
	ErrInvalidCharacter = errors.New("base62: invalid character")
	ErrOverflow         = errors.New("base62: value overflows int64")
)

// Encode returns the shortest representation of num. Encode(0) is "0".
func Encode(num int64) (string, error) {
	if num < 0 {
		return "", fmt.Errorf("%w: negative value %d", ErrInvalidArgument, num)
	}
	if num == 0 {
		return Alphabet[:1], nil
	}

	// 62^11 > MaxInt64
	var buf [11]byte
	i := len(buf)
	for num > 0 {
		i--
		buf[i] = Alphabet[num%base]
		num /= base
	}
	return string(buf[i:]), nil
}

// Decode accepts non-canonical input, so Decode("00") == 0.
func Decode(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidArgument)
	}

	var num int64
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 {
			return 0, fmt.Errorf("%w %q at position %d", ErrInvalidCharacter, s[i], i)
		}
		if num > (math.MaxInt64-d)/base {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
		num = num*base + d
	}
	return num, nil
}

func digitValue(c byte) int64 {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0')
	case c >= 'a' && c <= 'z':
		return int64(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int64(c-'A') + 36
	default:
		return -1
	}
}
