package daily

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/tarottimer/internal/deck"
	"github.com/conorfennell/tarottimer/internal/domain"
)

func newRegistry(t *testing.T) *deck.Registry {
	t.Helper()
	r, err := deck.NewRegistry(deck.ClassicID, deck.Builtin())
	require.NoError(t, err)
	return r
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// missingKeys wraps a registry and pretends some card keys do not exist.
type missingKeys struct {
	*deck.Registry
	missing map[string]bool
}

func (m missingKeys) CardByKey(deckID, key string) (domain.Card, bool) {
	if m.missing[key] {
		return domain.Card{}, false
	}
	return m.Registry.CardByKey(deckID, key)
}

func cardKeys(set domain.DailyCardSet) []string {
	keys := make([]string, len(set.Cards))
	for i, c := range set.Cards {
		keys[i] = c.CardKey
	}
	return keys
}

func TestGenerate(t *testing.T) {
	reg := newRegistry(t)
	set := New(reg).Generate("2024-01-01", "classic")

	assert.Equal(t, "2024-01-01", set.Date)
	assert.Equal(t, "classic", set.DeckID)
	require.Len(t, set.Cards, 24)
	assert.False(t, set.GeneratedAt.IsZero())

	for i, c := range set.Cards {
		assert.Equal(t, i, c.Hour)
		card, ok := reg.CardByKey("classic", c.CardKey)
		require.True(t, ok, c.CardKey)
		assert.Equal(t, card.Name, c.CardName)
		assert.Equal(t, card.Keywords(c.Reversed), c.Keywords)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := New(newRegistry(t))

	first := g.Generate("2024-01-01", "classic")
	second := g.Generate("2024-01-01", "classic")

	if diff := cmp.Diff(cardKeys(first), cardKeys(second)); diff != "" {
		t.Fatalf("card keys changed between runs (-first +second):\n%s", diff)
	}
	ignoreTimes := cmpopts.IgnoreFields(domain.DailyCard{}, "GeneratedAt")
	if diff := cmp.Diff(first.Cards, second.Cards, ignoreTimes); diff != "" {
		t.Fatalf("cards changed between runs (-first +second):\n%s", diff)
	}
}

func TestGenerateTimestampsFollowClock(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	g := New(newRegistry(t), WithClock(fixedClock(ts)))

	set := g.Generate("2024-01-01", "")
	assert.Equal(t, ts, set.GeneratedAt)
	for _, c := range set.Cards {
		assert.Equal(t, ts, c.GeneratedAt)
	}
}

func TestGenerateDifferentDatesDiffer(t *testing.T) {
	g := New(newRegistry(t))
	assert.NotEqual(t, cardKeys(g.Generate("2024-01-01", "")), cardKeys(g.Generate("2024-01-02", "")))
}

func TestGenerateUnknownDeckFallsBack(t *testing.T) {
	g := New(newRegistry(t))

	var set domain.DailyCardSet
	require.NotPanics(t, func() {
		set = g.Generate("2024-03-01", "nonexistent-deck")
	})
	assert.Equal(t, "classic", set.DeckID)
	assert.Len(t, set.Cards, 24)
	assert.Equal(t, cardKeys(g.Generate("2024-03-01", "classic")), cardKeys(set))
}

func TestGenerateUsesDeckSize(t *testing.T) {
	small := domain.Deck{ID: "duo", Name: "Duo", Version: "1", CardCount: 2, Cards: []domain.Card{
		{Key: "yes", Name: "Yes", Upright: []string{"yes"}, Reversed: []string{"not yet"}},
		{Key: "no", Name: "No", Upright: []string{"no"}, Reversed: []string{"not now"}},
	}}
	r, err := deck.NewRegistry(deck.ClassicID, deck.Builtin(), small)
	require.NoError(t, err)

	set := New(r).Generate("2024-05-05", "duo")
	require.Len(t, set.Cards, 24)
	for _, c := range set.Cards {
		assert.Contains(t, []string{"yes", "no"}, c.CardKey)
	}
}

func TestGenerateDropsUnresolvedHours(t *testing.T) {
	reg := newRegistry(t)
	full := New(reg).Generate("2024-01-01", "classic")
	dropKey := full.Cards[3].CardKey

	g := New(missingKeys{Registry: reg, missing: map[string]bool{dropKey: true}})
	set := g.Generate("2024-01-01", "classic")

	assert.Less(t, len(set.Cards), 24)
	for _, c := range set.Cards {
		assert.NotEqual(t, dropKey, c.CardKey)
	}
	_, ok := set.Card(3)
	assert.False(t, ok)
	assert.False(t, Validate(set))
}

func TestHourlyCard(t *testing.T) {
	reg := newRegistry(t)
	g := New(reg)
	full := g.Generate("2024-01-01", "classic")

	t.Run("in range", func(t *testing.T) {
		c, ok := g.HourlyCard("2024-01-01", 5, "classic")
		require.True(t, ok)
		assert.Equal(t, full.Cards[5].CardKey, c.CardKey)
		assert.Equal(t, 5, c.Hour)
	})

	t.Run("out of range", func(t *testing.T) {
		_, ok := g.HourlyCard("2024-01-01", -1, "classic")
		assert.False(t, ok)
		_, ok = g.HourlyCard("2024-01-01", 24, "classic")
		assert.False(t, ok)
	})

	t.Run("lookup is by hour after a dropped hour", func(t *testing.T) {
		drop := full.Cards[2].CardKey
		sparse := New(missingKeys{Registry: reg, missing: map[string]bool{drop: true}})

		var want *domain.DailyCard
		for i := 3; i < 24; i++ {
			if full.Cards[i].CardKey != drop {
				want = &full.Cards[i]
				break
			}
		}
		require.NotNil(t, want)

		c, ok := sparse.HourlyCard("2024-01-01", want.Hour, "classic")
		require.True(t, ok)
		assert.Equal(t, want.Hour, c.Hour)
		assert.Equal(t, want.CardKey, c.CardKey)

		_, ok = sparse.HourlyCard("2024-01-01", 2, "classic")
		assert.False(t, ok)
	})
}

func TestCurrentHourCard(t *testing.T) {
	now := time.Date(2024, 1, 1, 14, 5, 0, 0, time.Local)
	g := New(newRegistry(t), WithClock(fixedClock(now)))

	c, ok := g.CurrentHourCard("2024-01-01", "classic")
	require.True(t, ok)
	assert.Equal(t, 14, c.Hour)
}

func TestValidate(t *testing.T) {
	g := New(newRegistry(t))
	valid := g.Generate("2024-01-01", "classic")
	require.True(t, Validate(valid))

	testCases := []struct {
		name   string
		mutate func(s *domain.DailyCardSet)
	}{
		{"missing date", func(s *domain.DailyCardSet) { s.Date = "" }},
		{"missing deck", func(s *domain.DailyCardSet) { s.DeckID = "" }},
		{"nil cards", func(s *domain.DailyCardSet) { s.Cards = nil }},
		{"short", func(s *domain.DailyCardSet) { s.Cards = s.Cards[:23] }},
		{"hour out of order", func(s *domain.DailyCardSet) { s.Cards[4].Hour = 7 }},
		{"missing key", func(s *domain.DailyCardSet) { s.Cards[0].CardKey = "" }},
		{"missing name", func(s *domain.DailyCardSet) { s.Cards[23].CardName = "" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set := g.Generate("2024-01-01", "classic")
			tc.mutate(&set)
			assert.False(t, Validate(set))
		})
	}
}

func TestCheckConsistency(t *testing.T) {
	g := New(newRegistry(t))
	assert.True(t, g.CheckConsistency("2024-01-01", "", 5))
	assert.True(t, g.CheckConsistency("2024-02-29", "classic", 0))
}

// flakyDeck resolves every index of one deck to the same card, switching
// cards after each full day of lookups.
type flakyDeck struct {
	*deck.Registry
	deckID string
	calls  *int
}

func (f flakyDeck) CardAt(deckID string, index int) domain.Card {
	if deckID != f.deckID {
		return f.Registry.CardAt(deckID, index)
	}
	idx := (*f.calls / domain.HoursPerDay) % 2
	*f.calls++
	return f.Registry.CardAt(deckID, idx)
}

func TestCheckConsistencyUsesRequestedDeck(t *testing.T) {
	small := domain.Deck{ID: "duo", Name: "Duo", Version: "1", CardCount: 2, Cards: []domain.Card{
		{Key: "yes", Name: "Yes", Upright: []string{"yes"}},
		{Key: "no", Name: "No", Upright: []string{"no"}},
	}}
	r, err := deck.NewRegistry(deck.ClassicID, deck.Builtin(), small)
	require.NoError(t, err)

	calls := 0
	g := New(flakyDeck{Registry: r, deckID: "duo", calls: &calls})
	assert.True(t, g.CheckConsistency("2024-01-01", "classic", 3))
	assert.False(t, g.CheckConsistency("2024-01-01", "duo", 3))
}

func TestGenerateEmptyDeckUsesRegistryDefault(t *testing.T) {
	small := domain.Deck{ID: "duo", Name: "Duo", Version: "1", CardCount: 2, Cards: []domain.Card{
		{Key: "yes", Name: "Yes", Upright: []string{"yes"}},
		{Key: "no", Name: "No", Upright: []string{"no"}},
	}}
	r, err := deck.NewRegistry("duo", deck.Builtin(), small)
	require.NoError(t, err)

	assert.Equal(t, "duo", New(r).Generate("2024-01-01", "").DeckID)
}

func TestSameDraws(t *testing.T) {
	g := New(newRegistry(t))
	a := g.Generate("2024-01-01", "classic")
	b := g.Generate("2024-01-01", "classic")
	require.True(t, sameDraws(a, b))

	b.Cards[0].Reversed = !b.Cards[0].Reversed
	assert.False(t, sameDraws(a, b))
	assert.False(t, sameDraws(a, domain.DailyCardSet{}))
}
