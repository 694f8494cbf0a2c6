package domain

import "time"

// HoursPerDay is the number of hourly slots in a daily card set.
const HoursPerDay = 24

// Deck is a named, versioned collection of cards. Decks are loaded once and
// never mutated afterwards.
type Deck struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description,omitempty"`
	Version     string `yaml:"version" json:"version" validate:"required"`
	Type        string `yaml:"type" json:"type,omitempty"`
	CardCount   int    `yaml:"cardCount" json:"cardCount" validate:"gt=0"`
	Cards       []Card `yaml:"cards" json:"cards" validate:"required,min=1,unique=Key,dive"`
}

// Card is a single tarot card within a deck.
type Card struct {
	Key         string   `yaml:"key" json:"key" validate:"required"`
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Number      int      `yaml:"number" json:"number" validate:"gte=0"`
	Suit        string   `yaml:"suit" json:"suit,omitempty"`
	Upright     []string `yaml:"upright" json:"upright" validate:"required,min=1"`
	Reversed    []string `yaml:"reversed" json:"reversed"`
	Image       string   `yaml:"image" json:"image,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

// Keywords returns a copy of the keyword list for the given orientation.
func (c Card) Keywords(reversed bool) []string {
	src := c.Upright
	if reversed {
		src = c.Reversed
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DailyCard is the card drawn for one hour of a day.
type DailyCard struct {
	Hour        int       `json:"hour"`
	CardKey     string    `json:"cardKey"`
	CardName    string    `json:"cardName"`
	Reversed    bool      `json:"reversed"`
	Keywords    []string  `json:"keywords"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// DailyCardSet holds the cards for one date and deck, ordered by hour.
// Cards may hold fewer than HoursPerDay entries when a card could not be
// resolved for some hour.
type DailyCardSet struct {
	Date        string      `json:"date"`
	DeckID      string      `json:"deckId"`
	Cards       []DailyCard `json:"cards"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Card returns the entry whose Hour field matches hour.
func (s DailyCardSet) Card(hour int) (DailyCard, bool) {
	for _, c := range s.Cards {
		if c.Hour == hour {
			return c, true
		}
	}
	return DailyCard{}, false
}
