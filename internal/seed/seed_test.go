package seed

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	assert.Equal(t, "2024-01-01-tarot-timer-2024", Derive("2024-01-01"))
	assert.Equal(t, "2024-01-01-tarot-timer-2024-reversed", ReversalSeed(Derive("2024-01-01")))
	assert.NotEqual(t, Derive("2024-01-01"), Derive("2024-01-02"))
}

func TestStream(t *testing.T) {
	t.Run("same seed gives same sequence", func(t *testing.T) {
		a, b := NewStream("x"), NewStream("x")
		for i := 0; i < 100; i++ {
			require.Equal(t, a.Uint64(), b.Uint64(), "draw %d", i)
		}
	})

	t.Run("floats stay in unit interval", func(t *testing.T) {
		s := NewStream("bounds")
		for i := 0; i < 10000; i++ {
			f := s.Float64()
			require.GreaterOrEqual(t, f, 0.0)
			require.Less(t, f, 1.0)
		}
	})

	t.Run("different seeds diverge", func(t *testing.T) {
		a, b := NewStream("2024-01-01"), NewStream("2024-01-02")
		same := 0
		for i := 0; i < 10; i++ {
			if a.Uint64() == b.Uint64() {
				same++
			}
		}
		assert.Less(t, same, 10)
	})
}

func TestCardIndices(t *testing.T) {
	s := Derive("2024-01-01")

	first := CardIndices(s, 24, 22)
	second := CardIndices(s, 24, 22)
	require.Len(t, first, 24)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("indices changed between runs (-first +second):\n%s", diff)
	}

	for hour, idx := range first {
		assert.GreaterOrEqual(t, idx, 0, "hour %d", hour)
		assert.Less(t, idx, 22, "hour %d", hour)
	}

	assert.Panics(t, func() { CardIndices(s, 24, 0) })
}

func TestCardIndicesArePrefixStable(t *testing.T) {
	s := Derive("2024-06-15")
	short := CardIndices(s, 5, 22)
	long := CardIndices(s, 24, 22)
	assert.Equal(t, short, long[:5])
}

func TestStreamsAreIndependent(t *testing.T) {
	base := Derive("2024-03-01")

	// The reversal probability has no influence on which cards are drawn.
	before := CardIndices(base, 24, 22)
	_ = Reversals(ReversalSeed(base), 24, 0.9)
	after := CardIndices(base, 24, 22)
	assert.Equal(t, before, after)

	// Index draws and reversal draws consume different streams.
	idx := NewStream(base)
	rev := NewStream(ReversalSeed(base))
	same := 0
	for i := 0; i < 24; i++ {
		if idx.Uint64() == rev.Uint64() {
			same++
		}
	}
	assert.Zero(t, same)
}

func TestReversals(t *testing.T) {
	t.Run("probability extremes", func(t *testing.T) {
		for _, r := range Reversals("never", 24, 0) {
			assert.False(t, r)
		}
		for _, r := range Reversals("always", 24, 1) {
			assert.True(t, r)
		}
	})

	t.Run("frequency over many dates", func(t *testing.T) {
		const days = 10000
		reversed, total := 0, 0
		for d := 0; d < days; d++ {
			date := fmt.Sprintf("day-%05d", d)
			for _, r := range Reversals(ReversalSeed(Derive(date)), 24, ReversalProbability) {
				if r {
					reversed++
				}
				total++
			}
		}
		freq := float64(reversed) / float64(total)
		assert.InDelta(t, ReversalProbability, freq, 0.02)
	})
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("a"), Fingerprint("a"))
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
}
