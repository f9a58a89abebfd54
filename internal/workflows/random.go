package workflows

import (
	"github.com/PolarWolf314/keyward/internal/random"
)

// RandomBytes draws n secure bytes and encodes them as named by encoding
// (hex, base64, base64url or raw).
func RandomBytes(env *Env, n int, encoding string) (string, error) {
	enc, err := random.ParseEncoding(encoding)
	if err != nil {
		return "", err
	}
	return env.random().Bytes(n, enc)
}

// RandomInt draws a uniformly distributed integer in [low, high].
func RandomInt(env *Env, low, high uint64) (uint64, error) {
	return env.random().IntInRange(low, high)
}
