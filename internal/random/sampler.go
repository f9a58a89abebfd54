package random

import (
	"math"
	"math/bits"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

// IntInRange returns an integer uniformly distributed over [low, high].
//
// It draws the fewest whole bytes that can hold high-low and rejects draws
// at or above the largest multiple of the span that fits in those bytes, so
// the final modulo carries no bias.
func (s *Source) IntInRange(low, high uint64) (uint64, error) {
	if low > high {
		return 0, kerrors.Newf(kerrors.ErrInvalidArgument,
			"low must not exceed high, got [%d, %d]", low, high)
	}

	maxOffset := high - low
	if maxOffset == 0 {
		return low, nil
	}

	width := (bits.Len64(maxOffset) + 7) / 8

	// The whole uint64 range: every 8-byte draw is already uniform.
	if maxOffset == math.MaxUint64 {
		return s.draw(width)
	}

	span := maxOffset + 1

	// Largest value representable in width bytes, i.e. 2^(8*width) - 1.
	ceiling := uint64(math.MaxUint64)
	if width < 8 {
		ceiling = 1<<(8*uint(width)) - 1
	}
	// 2^(8*width) mod span, computed without overflowing.
	remainder := (ceiling%span + 1) % span
	accept := ceiling - remainder

	for {
		v, err := s.draw(width)
		if err != nil {
			return 0, err
		}
		if v <= accept {
			return low + v%span, nil
		}
	}
}

func (s *Source) draw(width int) (uint64, error) {
	buf, err := s.Read(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
