// Package deck holds the read-only registry of deck definitions used to
// resolve drawn indices into cards.
package deck

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/conorfennell/tarottimer/internal/deckfile"
	"github.com/conorfennell/tarottimer/internal/domain"
)

// ClassicID is the id of the built-in deck.
const ClassicID = "classic"

//go:embed decks/classic.yaml
var classicYAML []byte

// ErrDuplicateDeck is returned when two decks share an id.
var ErrDuplicateDeck = errors.New("duplicate deck id")

// Builtin returns the embedded classic deck.
func Builtin() domain.Deck {
	d, err := deckfile.Parse(bytes.NewReader(classicYAML))
	if err != nil {
		panic(fmt.Sprintf("deck: embedded classic deck is invalid: %v", err))
	}
	return d
}

// Registry resolves decks and cards by id. It is immutable after NewRegistry
// returns and safe for concurrent use.
type Registry struct {
	decks     map[string]domain.Deck
	byKey     map[string]map[string]int
	defaultID string
}

// NewRegistry builds a registry from decks. defaultID must name one of them;
// it is used for every lookup of an unknown deck id.
func NewRegistry(defaultID string, decks ...domain.Deck) (*Registry, error) {
	r := &Registry{
		decks:     make(map[string]domain.Deck, len(decks)),
		byKey:     make(map[string]map[string]int, len(decks)),
		defaultID: defaultID,
	}
	for _, d := range decks {
		if _, ok := r.decks[d.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDeck, d.ID)
		}
		keys := make(map[string]int, len(d.Cards))
		for i, c := range d.Cards {
			keys[c.Key] = i
		}
		r.decks[d.ID] = d
		r.byKey[d.ID] = keys
	}
	if _, ok := r.decks[defaultID]; !ok {
		return nil, fmt.Errorf("default deck %q is not registered", defaultID)
	}
	return r, nil
}

// DefaultID returns the id of the fallback deck.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.decks[id]
	return ok
}

// IDs returns the registered deck ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.decks))
	for id := range r.decks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Deck returns the deck registered under id, or the default deck.
func (r *Registry) Deck(id string) domain.Deck {
	if d, ok := r.decks[id]; ok {
		return d
	}
	return r.decks[r.defaultID]
}

// CardAt returns the card at position index of the deck. An index outside
// the deck is a programming error and panics.
func (r *Registry) CardAt(deckID string, index int) domain.Card {
	d := r.Deck(deckID)
	if index < 0 || index >= len(d.Cards) {
		panic(fmt.Sprintf("deck: index %d out of range for deck %q with %d cards", index, d.ID, len(d.Cards)))
	}
	return d.Cards[index]
}

// CardByKey looks a card up by key. The second result is false when the deck
// has no card with that key.
func (r *Registry) CardByKey(deckID, key string) (domain.Card, bool) {
	d := r.Deck(deckID)
	i, ok := r.byKey[d.ID][key]
	if !ok {
		return domain.Card{}, false
	}
	return d.Cards[i], true
}
