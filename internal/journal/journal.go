// Package journal stores generated days and the memos written against
// their hours.
package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/conorfennell/tarottimer/internal/daily"
	"github.com/conorfennell/tarottimer/internal/domain"
	"github.com/conorfennell/tarottimer/internal/seed"
	"github.com/conorfennell/tarottimer/internal/storage"
)

// ErrInvalidHour is returned for an hour outside [0,23].
var ErrInvalidHour = errors.New("hour must be between 0 and 23")

// activeDeckSetting names the setting consulted by ResolveDeck.
const activeDeckSetting = "active_deck_id"

// Service materializes daily card sets into storage.
type Service struct {
	db   *storage.DB
	gen  *daily.Generator
	log  zerolog.Logger
	deck string
}

// Option configures a Service.
type Option func(*Service)

// WithDeck pins the deck used whenever a caller does not ask for one,
// ahead of stored sessions and the active deck setting.
func WithDeck(id string) Option {
	return func(s *Service) { s.deck = id }
}

// New returns a Service.
func New(db *storage.DB, gen *daily.Generator, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{db: db, gen: gen, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveDeck picks the deck for date. The first non-empty candidate wins:
// requested, the pinned deck, the deck of the date's stored session, the
// active deck setting. An empty result means the generator's default deck.
// Unknown ids are returned as is; the generator falls back for them.
func (s *Service) ResolveDeck(ctx context.Context, date, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if s.deck != "" {
		return s.deck, nil
	}
	sess, err := s.db.SessionByDate(ctx, date)
	if err == nil {
		return sess.DeckID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	id, err := s.db.Setting(ctx, activeDeckSetting)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return id, err
}

// Hour is one hour of a day with its stored memo.
type Hour struct {
	domain.DailyCard
	Memo *string `json:"memo"`
}

// Day is a generated day joined with its stored memos.
type Day struct {
	Date    string `json:"date"`
	DeckID  string `json:"deckId"`
	Session string `json:"sessionId"`
	Hours   []Hour `json:"hours"`
}

// Materialize generates the set for date and stores one row per hour.
// Regenerating a stored date never touches its memos. The deck is chosen by
// ResolveDeck with deckID as the requested deck.
func (s *Service) Materialize(ctx context.Context, date, deckID string) (domain.DailyCardSet, storage.Session, error) {
	deckID, err := s.ResolveDeck(ctx, date, deckID)
	if err != nil {
		return domain.DailyCardSet{}, storage.Session{}, err
	}

	set := s.gen.Generate(date, deckID)
	sess, err := s.db.UpsertSession(ctx, date, seed.Derive(date), set.DeckID)
	if err != nil {
		return domain.DailyCardSet{}, storage.Session{}, err
	}

	rows := make([]storage.HourCard, len(set.Cards))
	for i, c := range set.Cards {
		rows[i] = storage.HourCard{Hour: c.Hour, CardKey: c.CardKey}
	}
	if err := s.db.UpsertHourCards(ctx, sess.ID, rows); err != nil {
		return domain.DailyCardSet{}, storage.Session{}, err
	}

	s.log.Debug().Str("date", date).Str("deck", set.DeckID).Str("session", sess.ID).Int("hours", len(rows)).Msg("materialized day")
	return set, sess, nil
}

// Day materializes date and joins each hour with its memo. The deck is
// chosen by ResolveDeck with deckID as the requested deck.
func (s *Service) Day(ctx context.Context, date, deckID string) (Day, error) {
	set, sess, err := s.Materialize(ctx, date, deckID)
	if err != nil {
		return Day{}, err
	}
	entries, err := s.db.HourEntries(ctx, sess.ID)
	if err != nil {
		return Day{}, err
	}
	memos := make(map[int]*string, len(entries))
	for _, e := range entries {
		memos[e.Hour] = e.Memo
	}

	day := Day{Date: date, DeckID: set.DeckID, Session: sess.ID, Hours: make([]Hour, len(set.Cards))}
	for i, c := range set.Cards {
		day.Hours[i] = Hour{DailyCard: c, Memo: memos[c.Hour]}
	}
	return day, nil
}

// SetMemo stores memo against one hour of date, materializing the date first
// if it has not been stored yet. A nil memo clears it.
func (s *Service) SetMemo(ctx context.Context, date string, hour int, memo *string) error {
	if hour < 0 || hour >= domain.HoursPerDay {
		return fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}

	sess, err := s.db.SessionByDate(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		_, sess, err = s.Materialize(ctx, date, "")
	}
	if err != nil {
		return err
	}
	return s.db.SetMemo(ctx, sess.ID, hour, memo)
}

// RecentMemos returns up to limit memos, most recently edited first.
func (s *Service) RecentMemos(ctx context.Context, limit int) ([]storage.MemoEntry, error) {
	return s.db.RecentMemos(ctx, limit)
}
