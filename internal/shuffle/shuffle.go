// Package shuffle provides the uniform random permutation used to order feed pages.
package shuffle

import "math/rand/v2"

// Rand is the randomness the feed needs. *rand.Rand satisfies it, which lets
// tests supply a seeded source.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Default returns a source backed by the math/rand/v2 top-level functions.
// It is safe for concurrent use, unlike a *rand.Rand.
func Default() Rand { return globalRand{} }

// Seeded returns a deterministic source. Not safe for concurrent use.
func Seeded(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Slice permutes items in place with Fisher–Yates. Every permutation is equally likely
// provided r is uniform.
func Slice[T any](r Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
