// Package seed derives reproducible seeds from calendar dates and expands
// them into deterministic pseudo-random draws.
//
// The output of this package is persisted indirectly (card keys stored per
// date), so Salt and Algorithm are fixed for the life of the product.
// Changing either changes every previously generated day.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

const (
	// Salt is appended to every date key.
	Salt = "tarot-timer-2024"

	// Algorithm names the generator and keying scheme used by Stream.
	Algorithm = "chacha8-sha256/v1"

	// ReversalSuffix separates the reversal stream from the index stream.
	ReversalSuffix = "-reversed"

	// ReversalProbability is the chance that a drawn card is reversed.
	ReversalProbability = 0.30
)

// Derive returns the seed for a date key. The date is treated as an opaque
// identifier; it is not parsed.
func Derive(date string) string {
	return date + "-" + Salt
}

// ReversalSeed returns the seed for the reversal stream of a day.
func ReversalSeed(seed string) string {
	return seed + ReversalSuffix
}

// Stream is a deterministic sequence of floats in [0,1) keyed by a string.
// A Stream is not safe for concurrent use.
type Stream struct {
	src *rand.ChaCha8
}

// NewStream keys a ChaCha8 generator with the SHA-256 digest of seed.
func NewStream(seed string) *Stream {
	return &Stream{src: rand.NewChaCha8(sha256.Sum256([]byte(seed)))}
}

// Uint64 returns the next raw 64-bit value.
func (s *Stream) Uint64() uint64 {
	return s.src.Uint64()
}

// Float64 returns the next value in [0,1) using the top 53 bits of Uint64.
func (s *Stream) Float64() float64 {
	return float64(s.src.Uint64()>>11) / (1 << 53)
}

// CardIndices draws count indices in [0,bound), one stream value per index.
func CardIndices(seed string, count, bound int) []int {
	if bound <= 0 {
		panic("seed: card index bound must be positive")
	}
	s := NewStream(seed)
	out := make([]int, count)
	for i := range out {
		out[i] = int(s.Float64() * float64(bound))
	}
	return out
}

// Reversals draws count reversal flags, each true with the given probability.
func Reversals(seed string, count int, probability float64) []bool {
	s := NewStream(seed)
	out := make([]bool, count)
	for i := range out {
		out[i] = s.Float64() < probability
	}
	return out
}

// Fingerprint is a short stable digest of a seed, useful for logs.
func Fingerprint(seed string) uint64 {
	sum := sha256.Sum256([]byte(seed))
	return binary.BigEndian.Uint64(sum[:8])
}
