// Package random produces secure random bytes and unbiased random integers.
//
// Every key, IV and sampled integer in keyward comes from a Source. The
// default Source reads crypto/rand; tests wrap deterministic or failing
// readers to pin down edge cases.
//
// IntInRange uses rejection sampling: draws that would make the final
// modulo favour small values are discarded and redrawn.
package random
