package evo

import (
	"time"

	"golang.org/x/exp/rand"
)

// RandomSource is the single stream of uniform randomness shared by the
// initializer, the selector, crossover and mutation. Implementations are not
// required to be safe for concurrent use.
type RandomSource interface {
	// Float64 returns a draw in [0, 1).
	Float64() float64
	// Intn returns a draw in [0, n). n must be > 0.
	Intn(n int) int
}

// NewRandomSource returns a deterministic stream for seed.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(uint64(seed)))
}

// ResolveSeed maps the zero seed to a clock-derived one so callers can leave
// the seed unset in production and still pin it in tests.
func ResolveSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}
