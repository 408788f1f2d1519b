package base62

import (
	"errors"
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		num  int64
		want string
	}{
		{"zero", 0, "0"},
		{"single digit", 9, "9"},
		{"first lowercase", 10, "a"},
		{"first uppercase", 36, "A"},
		{"last symbol", 61, "Z"},
		{"base", 62, "10"},
		{"two digit max", 3843, "ZZ"},
		{"three digit min", 3844, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.num)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode(%d) = %q, want %q", tt.num, got, tt.want)
			}
		})
	}
}

func TestEncode_Negative(t *testing.T) {
	_, err := Encode(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got: %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"zero", "0", 0},
		{"base", "10", 62},
		{"last symbol", "Z", 61},
		{"two digit max", "ZZ", 3843},
		{"non-canonical leading zeros", "00", 0},
		{"leading zero kept value", "010", 62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"bang", "ab!c", ErrInvalidCharacter},
		{"only bang", "!", ErrInvalidCharacter},
		{"dash", "a-b", ErrInvalidCharacter},
		{"non-ascii", "añ", ErrInvalidCharacter},
		{"empty", "", ErrInvalidArgument},
		{"overflow", "ZZZZZZZZZZZZ", ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode(%q) error = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestRoundTrip_Boundaries(t *testing.T) {
	for _, n := range []int64{0, 1, 61, 62, 63, 3843, 3844, 238327, 238328, math.MaxInt32, math.MaxInt64} {
		s, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		got, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%q): %v", s, err)
		}
		if got != n {
			t.Errorf("round trip %d -> %q -> %d", n, s, got)
		}
	}
}

func TestRoundTrip_Range(t *testing.T) {
	limit := int64(10_000_000)
	step := int64(1)
	if testing.Short() {
		step = 997
	}

	for n := int64(0); n <= limit; n += step {
		s, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		got, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%q): %v", s, err)
		}
		if got != n {
			t.Fatalf("round trip %d -> %q -> %d", n, s, got)
		}
	}
}

func TestEncode_Canonical(t *testing.T) {
	for _, s := range []string{"1", "Z", "10", "zz", "aZ09", "100"} {
		n, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%q): %v", s, err)
		}
		got, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		if got != s {
			t.Errorf("Encode(Decode(%q)) = %q", s, got)
		}
	}
}
