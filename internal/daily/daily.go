package daily

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/conorfennell/tarottimer/internal/domain"
	"github.com/conorfennell/tarottimer/internal/seed"
)

// defaultIterations is the regeneration count used by CheckConsistency when
// the caller passes a non-positive value.
const defaultIterations = 10

// Resolver maps drawn indices and card keys to cards. Empty and unknown
// deck ids resolve against DefaultID.
type Resolver interface {
	DefaultID() string
	Deck(id string) domain.Deck
	CardAt(deckID string, index int) domain.Card
	CardByKey(deckID, key string) (domain.Card, bool)
}

// Generator assembles daily card sets. It holds no mutable state and is safe
// for concurrent use.
type Generator struct {
	decks Resolver
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock used for timestamps and the current hour.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger used to report dropped hours.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// New returns a Generator resolving cards through decks.
func New(decks Resolver, opts ...Option) *Generator {
	g := &Generator{
		decks: decks,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the card set for date using the given deck. An empty or
// unknown deck id resolves against the resolver's default deck, and the returned set
// carries the id of the deck actually used. Hours whose card cannot be
// resolved by key are left out, so the set may hold fewer than 24 cards.
func (g *Generator) Generate(date, deckID string) domain.DailyCardSet {
	if deckID == "" {
		deckID = g.decks.DefaultID()
	}
	d := g.decks.Deck(deckID)

	s := seed.Derive(date)
	indices := seed.CardIndices(s, domain.HoursPerDay, len(d.Cards))
	reversals := seed.Reversals(seed.ReversalSeed(s), domain.HoursPerDay, seed.ReversalProbability)

	cards := make([]domain.DailyCard, 0, domain.HoursPerDay)
	for hour := 0; hour < domain.HoursPerDay; hour++ {
		key := g.decks.CardAt(d.ID, indices[hour]).Key
		card, ok := g.decks.CardByKey(d.ID, key)
		if !ok {
			g.log.Warn().
				Str("date", date).
				Str("deck", d.ID).
				Int("hour", hour).
				Str("card_key", key).
				Msg("card not found, skipping hour")
			continue
		}
		cards = append(cards, domain.DailyCard{
			Hour:        hour,
			CardKey:     card.Key,
			CardName:    card.Name,
			Reversed:    reversals[hour],
			Keywords:    card.Keywords(reversals[hour]),
			GeneratedAt: g.now(),
		})
	}

	g.log.Debug().
		Str("date", date).
		Str("deck", d.ID).
		Uint64("seed_fp", seed.Fingerprint(s)).
		Int("cards", len(cards)).
		Msg("generated daily cards")

	return domain.DailyCardSet{
		Date:        date,
		DeckID:      d.ID,
		Cards:       cards,
		GeneratedAt: g.now(),
	}
}

// HourlyCard returns the card for one hour of date. It reports false when
// hour is outside [0,23] or when that hour was dropped during generation.
// Lookup is by each card's Hour field, not by position.
func (g *Generator) HourlyCard(date string, hour int, deckID string) (domain.DailyCard, bool) {
	if hour < 0 || hour >= domain.HoursPerDay {
		return domain.DailyCard{}, false
	}
	return g.Generate(date, deckID).Card(hour)
}

// CurrentHourCard returns the card for the clock's current local hour.
func (g *Generator) CurrentHourCard(date, deckID string) (domain.DailyCard, bool) {
	return g.HourlyCard(date, g.now().Local().Hour(), deckID)
}

// Validate reports whether set is structurally complete: date and deck id
// present, one card per hour in order, and every card keyed and named.
// It does not regenerate or compare against a fresh set.
func Validate(set domain.DailyCardSet) bool {
	if set.Date == "" || set.DeckID == "" {
		return false
	}
	if set.Cards == nil || len(set.Cards) != domain.HoursPerDay {
		return false
	}
	for i, c := range set.Cards {
		if c.Hour != i || c.CardKey == "" || c.CardName == "" {
			return false
		}
	}
	return true
}

// CheckConsistency regenerates the set for date and deckID iterations times
// and reports whether every hour drew the same card and orientation each
// time. An empty deckID checks the default deck.
func (g *Generator) CheckConsistency(date, deckID string, iterations int) bool {
	if iterations <= 0 {
		iterations = defaultIterations
	}
	first := g.Generate(date, deckID)
	for i := 1; i < iterations; i++ {
		next := g.Generate(date, deckID)
		if !sameDraws(first, next) {
			g.log.Error().Str("date", date).Str("deck", first.DeckID).Int("iteration", i).Msg("daily cards changed between generations")
			return false
		}
	}
	return true
}

func sameDraws(a, b domain.DailyCardSet) bool {
	if len(a.Cards) != len(b.Cards) {
		return false
	}
	for i := range a.Cards {
		if a.Cards[i].Hour != b.Cards[i].Hour ||
			a.Cards[i].CardKey != b.Cards[i].CardKey ||
			a.Cards[i].Reversed != b.Cards[i].Reversed {
			return false
		}
	}
	return true
}
