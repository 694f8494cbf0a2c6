// Package web serves the JSON API over the daily generator, the journal and
// the storage layer.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/conorfennell/tarottimer/internal/daily"
	"github.com/conorfennell/tarottimer/internal/deck"
	"github.com/conorfennell/tarottimer/internal/journal"
	"github.com/conorfennell/tarottimer/internal/storage"
)

// Options carries the server's dependencies. Registry and Now are optional.
type Options struct {
	DB        *storage.DB
	Decks     *deck.Registry
	Generator *daily.Generator
	Journal   *journal.Service
	Logger    zerolog.Logger
	Registry  *prometheus.Registry
	Now       func() time.Time
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	decks    *deck.Registry
	gen      *daily.Generator
	journal  *journal.Service
	log      zerolog.Logger
	now      func() time.Time
	router   *mux.Router
	registry *prometheus.Registry
	metrics  *Metrics
	validate *validator.Validate
}

// NewServer creates and configures a new server.
func NewServer(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		db:       opts.DB,
		decks:    opts.Decks,
		gen:      opts.Generator,
		journal:  opts.Journal,
		log:      opts.Logger,
		now:      now,
		router:   mux.NewRouter(),
		registry: reg,
		metrics:  NewMetrics(reg),
		validate: validator.New(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.Use(s.requestLogger, s.instrument, s.recoverer)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router.HandleFunc("/healthz", s.handleHealth()).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.HandleFunc("/api/decks", s.handleListDecks()).Methods(http.MethodGet)

	s.router.HandleFunc("/api/daily/{date}", s.handleGetDay()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/daily/{date}/current", s.handleGetCurrentHour()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/daily/{date}/validate", s.handleValidateDay()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/daily/{date}/hours/{hour}", s.handleGetHour()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/daily/{date}/hours/{hour}/memo", s.handlePutMemo()).Methods(http.MethodPut)

	s.router.HandleFunc("/api/settings", s.handleListSettings()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/settings/{key}", s.handlePutSetting()).Methods(http.MethodPut)

	s.router.HandleFunc("/api/spreads", s.handleListSpreads()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/spreads", s.handleCreateSpread()).Methods(http.MethodPost)
	s.router.HandleFunc("/api/spreads/{id}", s.handleGetSpread()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/spreads/{id}", s.handleDeleteSpread()).Methods(http.MethodDelete)
}
