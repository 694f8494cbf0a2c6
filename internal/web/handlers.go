package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/conorfennell/tarottimer/internal/daily"
	"github.com/conorfennell/tarottimer/internal/domain"
	"github.com/conorfennell/tarottimer/internal/journal"
	"github.com/conorfennell/tarottimer/internal/storage"
)

const (
	defaultSpreadLimit = 50
	maxSpreadLimit     = 500
	activeDeckSetting  = "active_deck_id"
)

type deckSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Type        string `json:"type,omitempty"`
	CardCount   int    `json:"cardCount"`
	Default     bool   `json:"default"`
}

type validateResponse struct {
	Date       string `json:"date"`
	DeckID     string `json:"deckId"`
	Valid      bool   `json:"valid"`
	Consistent bool   `json:"consistent"`
}

type memoRequest struct {
	Memo *string `json:"memo"`
}

type settingRequest struct {
	Value *string `json:"value" validate:"required"`
}

type spreadCardRequest struct {
	PositionIndex int     `json:"positionIndex" validate:"gte=0"`
	CardKey       string  `json:"cardKey" validate:"required"`
	Reversed      bool    `json:"reversed"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width" validate:"gte=0"`
	Height        float64 `json:"height" validate:"gte=0"`
}

type spreadRequest struct {
	SpreadType string              `json:"spreadType" validate:"required"`
	DeckID     string              `json:"deckId"`
	Title      *string             `json:"title"`
	ImageURI   *string             `json:"imageUri"`
	Cards      []spreadCardRequest `json:"cards" validate:"unique=PositionIndex,dive"`
}

type spreadResponse struct {
	storage.Spread
	Cards []storage.SpreadCard `json:"cards"`
}

// dateVar returns the {date} route variable if it is a valid date key.
func dateVar(r *http.Request) (string, error) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse(daily.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	return date, nil
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Conn().PingContext(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := s.decks.IDs()
		out := make([]deckSummary, 0, len(ids))
		for _, id := range ids {
			d := s.decks.Deck(id)
			out = append(out, deckSummary{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Version:     d.Version,
				Type:        d.Type,
				CardCount:   d.CardCount,
				Default:     d.ID == s.decks.DefaultID(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGetDay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateVar(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day, err := s.journal.Day(r.Context(), date, r.URL.Query().Get("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.metrics.days.WithLabelValues(day.DeckID).Inc()
		writeJSON(w, http.StatusOK, day)
	}
}

// writeHour writes the stored hour of date, or 404 when the hour is out of
// range or has no card. The ?deck query parameter selects the deck.
func (s *Server) writeHour(w http.ResponseWriter, r *http.Request, date string, hour int) {
	if hour < 0 || hour >= domain.HoursPerDay {
		writeError(w, http.StatusNotFound, journal.ErrInvalidHour.Error())
		return
	}
	day, err := s.journal.Day(r.Context(), date, r.URL.Query().Get("deck"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, h := range day.Hours {
		if h.Hour == hour {
			writeJSON(w, http.StatusOK, h)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("no card for hour %d", hour))
}

func (s *Server) handleGetHour() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateVar(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hour, err := strconv.Atoi(mux.Vars(r)["hour"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "hour must be an integer")
			return
		}
		s.writeHour(w, r, date, hour)
	}
}

func (s *Server) handleGetCurrentHour() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateVar(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeHour(w, r, date, s.now().Local().Hour())
	}
}

func (s *Server) handleValidateDay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateVar(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		deckID, err := s.journal.ResolveDeck(r.Context(), date, r.URL.Query().Get("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		set := s.gen.Generate(date, deckID)
		writeJSON(w, http.StatusOK, validateResponse{
			Date:       date,
			DeckID:     set.DeckID,
			Valid:      daily.Validate(set),
			Consistent: s.gen.CheckConsistency(date, set.DeckID, 0),
		})
	}
}

func (s *Server) handlePutMemo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateVar(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hour, err := strconv.Atoi(mux.Vars(r)["hour"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "hour must be an integer")
			return
		}
		var req memoRequest
		if err := s.decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.journal.SetMemo(r.Context(), date, hour, req.Memo); err != nil {
			s.fail(w, r, err)
			return
		}
		s.metrics.memos.Inc()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.db.Settings(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func (s *Server) handlePutSetting() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		var req settingRequest
		if err := s.decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if key == activeDeckSetting && !s.decks.Has(*req.Value) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown deck %q", *req.Value))
			return
		}
		if err := s.db.PutSetting(r.Context(), key, *req.Value); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": *req.Value})
	}
}

func (s *Server) handleListSpreads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSpreadLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxSpreadLimit)
		}
		spreads, err := s.db.ListSpreads(r.Context(), limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if spreads == nil {
			spreads = []storage.Spread{}
		}
		writeJSON(w, http.StatusOK, spreads)
	}
}

func (s *Server) handleCreateSpread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req spreadRequest
		if err := s.decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.DeckID != "" && !s.decks.Has(req.DeckID) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown deck %q", req.DeckID))
			return
		}
		if req.DeckID == "" {
			id, err := s.journal.ResolveDeck(r.Context(), s.now().Format(daily.DateLayout), "")
			if err != nil {
				s.fail(w, r, err)
				return
			}
			if !s.decks.Has(id) {
				id = s.decks.DefaultID()
			}
			req.DeckID = id
		}

		cards := make([]storage.SpreadCard, len(req.Cards))
		for i, c := range req.Cards {
			cards[i] = storage.SpreadCard{
				PositionIndex: c.PositionIndex,
				CardKey:       c.CardKey,
				Reversed:      c.Reversed,
				X:             c.X,
				Y:             c.Y,
				Width:         c.Width,
				Height:        c.Height,
			}
		}
		sp, err := s.db.CreateSpread(r.Context(), storage.Spread{
			SpreadType: req.SpreadType,
			DeckID:     req.DeckID,
			Title:      req.Title,
			ImageURI:   req.ImageURI,
		}, cards)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeSpread(w, r, sp.ID, http.StatusCreated)
	}
}

func (s *Server) writeSpread(w http.ResponseWriter, r *http.Request, id string, status int) {
	sp, err := s.db.Spread(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cards, err := s.db.SpreadCards(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cards == nil {
		cards = []storage.SpreadCard{}
	}
	writeJSON(w, status, spreadResponse{Spread: sp, Cards: cards})
}

func (s *Server) handleGetSpread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeSpread(w, r, mux.Vars(r)["id"], http.StatusOK)
	}
}

func (s *Server) handleDeleteSpread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeleteSpread(r.Context(), mux.Vars(r)["id"]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
