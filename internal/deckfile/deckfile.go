package deckfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/conorfennell/tarottimer/internal/domain"
)

// ErrInvalidDeck wraps every validation failure reported for a deck file.
var ErrInvalidDeck = errors.New("invalid deck definition")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(cardCountMatches, domain.Deck{})
	return v
}

// cardCountMatches enforces that the declared card count equals the number of
// listed cards.
func cardCountMatches(sl validator.StructLevel) {
	d := sl.Current().Interface().(domain.Deck)
	if d.CardCount != len(d.Cards) {
		sl.ReportError(d.Cards, "Cards", "cards", "cardcount", fmt.Sprint(d.CardCount))
	}
}

// ParseFile reads a deck definition from the given path.
func ParseFile(path string) (domain.Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Deck{}, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a YAML deck definition from r and validates it.
func Parse(r io.Reader) (domain.Deck, error) {
	var d domain.Deck
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return domain.Deck{}, fmt.Errorf("decode deck: %w", err)
	}
	if err := Validate(d); err != nil {
		return domain.Deck{}, err
	}
	return d, nil
}

// Validate checks a deck against the definition rules: required identity
// fields, unique non-empty card keys, at least one upright keyword per card
// and a card count that matches the card list.
func Validate(d domain.Deck) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidDeck, d.ID, err)
	}
	return nil
}
