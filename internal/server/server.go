// Package server exposes a running session over HTTP: Prometheus metrics,
// the scoreboard and the current roster with expected cast times.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

// RosterSource is the read side of the rotation engine.
type RosterSource interface {
	Roster() rotatonator.Roster
	ExpectedTimes() map[int]time.Time
	Deadline() (time.Time, bool)
}

// Scoreboard is the read and reset side of the scorer.
type Scoreboard interface {
	Leaderboard() []rotatonator.LeaderboardEntry
	Reset(healer string)
	ResetAll()
}

// Config wires the handlers. Nil fields disable their endpoints.
type Config struct {
	Engine  RosterSource
	Board   Scoreboard
	Metrics http.Handler
	Logger  *slog.Logger
	Now     func() time.Time

	// AllowedOrigins enables CORS for browser overlays. Empty allows any.
	AllowedOrigins []string
}

const maxLeaderboardLimit = 100

// NewRouter builds the HTTP routes.
func NewRouter(cfg Config) chi.Router {
	h := &handlers{cfg: cfg}
	if h.cfg.Logger == nil {
		h.cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if h.cfg.Now == nil {
		h.cfg.Now = time.Now
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         60 * 15,
	}))

	r.Get("/healthz", h.health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Engine != nil {
		r.Get("/roster", h.roster)
	}
	if cfg.Board != nil {
		r.Route("/leaderboard", func(rr chi.Router) {
			rr.Get("/", h.leaderboard)
			rr.Post("/reset", h.resetAll)
			rr.Delete("/{healer}/streak", h.resetStreak)
		})
	}
	return r
}

type handlers struct {
	cfg Config
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// SlotView is one roster slot in the /roster response.
type SlotView struct {
	Slot         int        `json:"slot"`
	Healer       string     `json:"healer"`
	IsPlayer     bool       `json:"is_player,omitempty"`
	ExpectedTime *time.Time `json:"expected_time,omitempty"`
	SecondsUntil *float64   `json:"seconds_until,omitempty"`
}

// RosterView is the /roster response.
type RosterView struct {
	ChainPrefix     string     `json:"chain_prefix"`
	IntervalSeconds float64    `json:"interval_seconds"`
	Player          string     `json:"player,omitempty"`
	PlayerPosition  int        `json:"player_position"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Slots           []SlotView `json:"slots"`
}

func (h *handlers) roster(w http.ResponseWriter, _ *http.Request) {
	r := h.cfg.Engine.Roster()
	expected := h.cfg.Engine.ExpectedTimes()
	now := h.cfg.Now()
	player := r.PlayerPosition()

	view := RosterView{
		ChainPrefix:     r.ChainPrefix,
		IntervalSeconds: r.Interval.Seconds(),
		Player:          r.Player,
		PlayerPosition:  player,
		Slots:           make([]SlotView, 0, len(r.Healers)),
	}
	if deadline, ok := h.cfg.Engine.Deadline(); ok {
		view.Deadline = &deadline
	}
	for i, name := range r.Healers {
		s := SlotView{Slot: i + 1, Healer: name, IsPlayer: i == player}
		if t, ok := expected[i+1]; ok {
			until := t.Sub(now).Seconds()
			s.ExpectedTime = &t
			s.SecondsUntil = &until
		}
		view.Slots = append(view.Slots, s)
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := maxLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	board := h.cfg.Board.Leaderboard()
	// Stable presentation for equal scores.
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Healer < board[j].Healer
	})
	if len(board) > limit {
		board = board[:limit]
	}
	h.writeJSON(w, http.StatusOK, board)
}

func (h *handlers) resetAll(w http.ResponseWriter, _ *http.Request) {
	h.cfg.Board.ResetAll()
	h.cfg.Logger.Info("scoreboard reset")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) resetStreak(w http.ResponseWriter, r *http.Request) {
	healer := chi.URLParam(r, "healer")
	h.cfg.Board.Reset(healer)
	h.cfg.Logger.Info("streak reset", "healer", healer)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.cfg.Logger.Warn("writing response", "error", err)
	}
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.cfg.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// Server is an HTTP listener bound to an address.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
	errCh  chan error
}

// Listen binds addr and starts serving handler in the background.
func Listen(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
		errCh:  make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.errCh <- err
		close(s.errCh)
	}()
	logger.Info("http server listening", "addr", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Err is closed when the server stops; it carries the serve error, if any.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
