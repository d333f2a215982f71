package replay

import (
	"errors"
	"math"
	"testing"
)

func TestVarintBoundaries(t *testing.T) {
	cases := []struct {
		value uint32
		size  int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{2097151, 3},
		{2097152, 4},
		{268435455, 4},
		{268435456, 5},
		{math.MaxUint32, 5},
	}
	for _, tc := range cases {
		if got := VarintSize(tc.value); got != tc.size {
			t.Errorf("VarintSize(%d) = %d, want %d", tc.value, got, tc.size)
		}
		encoded := AppendVarint(nil, tc.value)
		if len(encoded) != tc.size {
			t.Errorf("AppendVarint(%d) wrote %d bytes, want %d", tc.value, len(encoded), tc.size)
		}
		decoded, n, err := DecodeVarint(encoded)
		if err != nil {
			t.Fatalf("DecodeVarint(%d): %v", tc.value, err)
		}
		if decoded != tc.value || n != tc.size {
			t.Errorf("DecodeVarint(%d) = %d (%d bytes)", tc.value, decoded, n)
		}
	}
}

func TestVarintTruncated(t *testing.T) {
	encoded := AppendVarint(nil, 300)
	if _, _, err := DecodeVarint(encoded[:1]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if _, _, err := DecodeVarint(nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("empty buffer err = %v, want ErrTruncated", err)
	}
}

func TestVarintOverlong(t *testing.T) {
	overlong := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, _, err := DecodeVarint(overlong); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}
