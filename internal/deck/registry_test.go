package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/tarottimer/internal/domain"
)

func miniDeck(id string, keys ...string) domain.Deck {
	d := domain.Deck{ID: id, Name: id, Version: "1", CardCount: len(keys)}
	for i, k := range keys {
		d.Cards = append(d.Cards, domain.Card{Key: k, Name: k, Number: i, Upright: []string{k}})
	}
	return d
}

func TestBuiltin(t *testing.T) {
	d := Builtin()
	assert.Equal(t, ClassicID, d.ID)
	assert.Len(t, d.Cards, 22)
	assert.Equal(t, 22, d.CardCount)
	assert.Equal(t, "fool", d.Cards[0].Key)
	assert.Equal(t, "world", d.Cards[21].Key)
	for _, c := range d.Cards {
		assert.NotEmpty(t, c.Upright, c.Key)
		assert.NotEmpty(t, c.Reversed, c.Key)
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("default must be registered", func(t *testing.T) {
		_, err := NewRegistry("missing", miniDeck("a", "x"))
		require.Error(t, err)
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		_, err := NewRegistry("a", miniDeck("a", "x"), miniDeck("a", "y"))
		require.ErrorIs(t, err, ErrDuplicateDeck)
	})

	t.Run("ids sorted", func(t *testing.T) {
		r, err := NewRegistry("b", miniDeck("b", "x"), miniDeck("a", "y"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, r.IDs())
		assert.Equal(t, "b", r.DefaultID())
		assert.True(t, r.Has("a"))
		assert.False(t, r.Has("c"))
	})
}

func TestRegistryLookups(t *testing.T) {
	r, err := NewRegistry(ClassicID, Builtin(), miniDeck("mini", "one", "two"))
	require.NoError(t, err)

	t.Run("unknown deck falls back to default", func(t *testing.T) {
		assert.Equal(t, ClassicID, r.Deck("nonexistent-deck").ID)
		assert.Equal(t, "fool", r.CardAt("nonexistent-deck", 0).Key)
	})

	t.Run("card by index", func(t *testing.T) {
		assert.Equal(t, "two", r.CardAt("mini", 1).Key)
	})

	t.Run("index out of range panics", func(t *testing.T) {
		assert.Panics(t, func() { r.CardAt("mini", 2) })
		assert.Panics(t, func() { r.CardAt("mini", -1) })
	})

	t.Run("card by key", func(t *testing.T) {
		c, ok := r.CardByKey(ClassicID, "tower")
		require.True(t, ok)
		assert.Equal(t, "The Tower", c.Name)

		_, ok = r.CardByKey("mini", "tower")
		assert.False(t, ok)

		c, ok = r.CardByKey("nonexistent-deck", "sun")
		require.True(t, ok)
		assert.Equal(t, 19, c.Number)
	})
}
