package random

import (
	"bytes"
	"encoding/base64"
	"errors"
	"math"
	"testing"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

func TestBytes_HexLength(t *testing.T) {
	for _, n := range []int{0, 1, 7, 16, 32, 1000} {
		out, err := Default.Bytes(n, Hex)
		if err != nil {
			t.Fatalf("Bytes(%d) failed: %v", n, err)
		}
		if len(out) != 2*n {
			t.Errorf("Bytes(%d, hex) length = %d, want %d", n, len(out), 2*n)
		}
	}
}

func TestBytes_Encodings(t *testing.T) {
	t.Run("Base64", func(t *testing.T) {
		out, err := Default.Bytes(24, Base64)
		if err != nil {
			t.Fatalf("Bytes failed: %v", err)
		}
		raw, err := base64.StdEncoding.DecodeString(out)
		if err != nil {
			t.Fatalf("output is not base64: %v", err)
		}
		if len(raw) != 24 {
			t.Errorf("decoded length = %d, want 24", len(raw))
		}
	})

	t.Run("Raw", func(t *testing.T) {
		src := New(bytes.NewReader([]byte{0x41, 0x42}))
		out, err := src.Bytes(2, Raw)
		if err != nil {
			t.Fatalf("Bytes failed: %v", err)
		}
		if out != "AB" {
			t.Errorf("got %q, want %q", out, "AB")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Default.Bytes(4, Encoding("rot13"))
		if !errors.Is(err, kerrors.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBytes_NegativeCount(t *testing.T) {
	_, err := Default.Bytes(-1, Hex)
	if !errors.Is(err, kerrors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBytes_SourceFailurePropagates(t *testing.T) {
	src := New(failingReader{err: errors.New("randomBytes error")})

	_, err := src.Bytes(8, Hex)
	if err == nil {
		t.Fatal("expected error from failing source")
	}
	if err.Error() != "randomBytes error" {
		t.Errorf("expected message %q, got %q", "randomBytes error", err.Error())
	}
	if !errors.Is(err, kerrors.ErrRandomGeneration) {
		t.Errorf("expected ErrRandomGeneration, got %v", err)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		input   string
		want    Encoding
		wantErr bool
	}{
		{"", Hex, false},
		{"hex", Hex, false},
		{"base64", Base64, false},
		{"base64url", Base64URL, false},
		{"raw", Raw, false},
		{"binary", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseEncoding(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseEncoding(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseEncoding(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIntInRange_Bounds(t *testing.T) {
	ranges := []struct {
		name      string
		low, high uint64
	}{
		{"Small", 0, 9},
		{"Offset", 100, 105},
		{"ByteBoundary", 0, 255},
		{"JustOverByte", 0, 256},
		{"Forty Bits", 0, 1099511627775},
		{"Large Offset", 1 << 50, 1<<50 + 12345},
	}

	for _, r := range ranges {
		t.Run(r.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				v, err := Default.IntInRange(r.low, r.high)
				if err != nil {
					t.Fatalf("IntInRange failed: %v", err)
				}
				if v < r.low || v > r.high {
					t.Fatalf("IntInRange(%d, %d) = %d, out of range", r.low, r.high, v)
				}
			}
		})
	}
}

func TestIntInRange_SingleValue(t *testing.T) {
	src := New(failingReader{err: errors.New("must not be read")})

	v, err := src.IntInRange(42, 42)
	if err != nil {
		t.Fatalf("IntInRange failed: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestIntInRange_LowAboveHigh(t *testing.T) {
	_, err := Default.IntInRange(10, 9)
	if !errors.Is(err, kerrors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestIntInRange_FullRange(t *testing.T) {
	src := New(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))

	v, err := src.IntInRange(0, math.MaxUint64)
	if err != nil {
		t.Fatalf("IntInRange failed: %v", err)
	}
	if v != math.MaxUint64 {
		t.Errorf("got %d, want MaxUint64", v)
	}
}

func TestIntInRange_RejectsBiasedDraws(t *testing.T) {
	// Span 3 in one byte: 256 values, accept 0..254, reject 255.
	src := New(bytes.NewReader([]byte{255, 255, 7}))

	v, err := src.IntInRange(10, 12)
	if err != nil {
		t.Fatalf("IntInRange failed: %v", err)
	}
	if v != 10+7%3 {
		t.Errorf("got %d, want %d", v, 10+7%3)
	}
}

func TestIntInRange_SourceFailurePropagates(t *testing.T) {
	src := New(failingReader{err: errors.New("entropy exhausted")})

	_, err := src.IntInRange(0, 100)
	if err == nil || err.Error() != "entropy exhausted" {
		t.Errorf("expected verbatim source error, got %v", err)
	}
}

func TestIntInRange_CoversSmallRange(t *testing.T) {
	seen := make(map[uint64]int)
	for i := 0; i < 6000; i++ {
		v, err := Default.IntInRange(1, 6)
		if err != nil {
			t.Fatalf("IntInRange failed: %v", err)
		}
		seen[v]++
	}

	for face := uint64(1); face <= 6; face++ {
		// Expected 1000 each; anything below 700 is far outside normal variation.
		if seen[face] < 700 {
			t.Errorf("value %d drawn %d times, distribution looks biased: %v", face, seen[face], seen)
		}
	}
}
