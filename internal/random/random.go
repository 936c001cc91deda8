// Package random provides the seeded pseudo-random source shared by the
// staircase coordinator and its shuffle helper.
//
// A Source is deterministic for a given seed: two sources created with the
// same seed string produce identical Float64 streams. An empty seed yields an
// independent stream. A Source is not safe for concurrent use and must be
// owned by exactly one coordinator.
package random

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is a seed-configurable stream of uniform floats in [0,1).
type Source struct {
	seed   string
	seeded bool
	rng    *rand.Rand
}

// New creates a Source. An empty seed produces an unseeded, independent stream.
func New(seed string) *Source {
	if seed == "" {
		return &Source{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	hi, lo := seedWords(seed)
	return &Source{
		seed:   seed,
		seeded: true,
		rng:    rand.New(rand.NewPCG(hi, lo)),
	}
}

// seedWords derives the two PCG state words from a seed string.
func seedWords(seed string) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	hi := h.Sum64()
	_, _ = h.Write([]byte{0x9e, 0x37, 0x79, 0xb9})
	return hi, h.Sum64()
}

// Float64 returns the next uniform float in [0,1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform int in [0,n). n must be positive.
func (s *Source) IntN(n int) int {
	return int(s.Float64() * float64(n))
}

// Seed returns the seed string, or "" for an unseeded source.
func (s *Source) Seed() string {
	return s.seed
}

// Seeded reports whether the source was created from a seed.
func (s *Source) Seeded() bool {
	return s.seeded
}

// Shuffle returns a new slice holding items in uniformly random order.
// The input is left untouched. The result is deterministic for a fixed
// source state; a nil source draws from an unseeded stream.
func Shuffle[T any](src *Source, items []T) []T {
	if src == nil {
		src = New("")
	}
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
