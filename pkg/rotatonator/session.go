package rotatonator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session watches one chat log for one chain. It owns the engine, the
// ingestor and, when scoring is enabled, a scorer, and delivers their
// notifications on a channel.
type Session struct {
	id       string
	logFile  string
	cfg      *config
	logger   *slog.Logger
	engine   *Engine
	ingestor *Ingestor
	scorer   *Scorer

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	errs   chan error
	fatal  chan error
	doneCh chan struct{}

	mu       sync.Mutex
	watching bool
	closed   bool
}

// NewSession creates a session following logFile with the given roster.
// The log file must exist. Nothing is read until Watch is called.
func NewSession(logFile string, roster Roster, opts ...Option) (*Session, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(logFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogFileNotFound, err)
	}

	cfg := applyOptions(opts)
	if cfg.sessionID == "" {
		cfg.sessionID = uuid.NewString()
	}
	if cfg.scoring && cfg.scorer == nil {
		cfg.scorer = NewScorer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      cfg.sessionID,
		logFile: logFile,
		cfg:     cfg,
		logger:  cfg.logger.With("session", cfg.sessionID),
		scorer:  cfg.scorer,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan Event, cfg.eventBuffer),
		errs:    make(chan error, errBuffer),
		fatal:   make(chan error, 1),
		doneCh:  make(chan struct{}),
	}

	engineOpts := slices.Concat(opts, []Option{WithSessionID(s.id), WithLogger(s.logger)})
	engine, err := NewEngine(roster, engineOpts...)
	if err != nil {
		cancel()
		return nil, err
	}
	engine.Subscribe(s.handle)
	s.engine = engine

	ingestOpts := slices.Concat(opts, []Option{WithLogger(s.logger), WithErrorHandler(s.ingestError)})
	ingestor, err := NewIngestor(logFile, roster.ChainPrefix, engine, ingestOpts...)
	if err != nil {
		cancel()
		return nil, err
	}
	s.ingestor = ingestor

	return s, nil
}

// ID returns the session identifier stamped on every event.
func (s *Session) ID() string { return s.id }

// LogFile returns the followed chat log.
func (s *Session) LogFile() string { return s.logFile }

// Engine returns the session's rotation engine.
func (s *Session) Engine() *Engine { return s.engine }

// Scorer returns the session's scoreboard, or nil when scoring is disabled.
func (s *Session) Scorer() *Scorer { return s.scorer }

// Watch starts following the log and returns the event and error
// channels. Both are closed when ctx is cancelled, Close is called or the
// log becomes unreadable; in the last case an error wrapping
// ErrIngestFailed is delivered first.
//
// Watch can only be called once per session.
func (s *Session) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	if s.watching {
		s.mu.Unlock()
		return nil, nil, ErrAlreadyWatching
	}
	s.watching = true
	s.mu.Unlock()

	if err := s.ingestor.Start(s.ctx); err != nil {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.teardown()
		close(s.doneCh)
		return nil, nil, err
	}

	go s.run(ctx)

	roster := s.engine.Roster()
	s.logger.Info("watching chat log",
		"log_file", s.logFile,
		"healers", len(roster.Healers),
		"player", roster.Player,
		"player_position", roster.PlayerPosition(),
	)
	return s.events, s.errs, nil
}

// Close stops the session: the armed deadline is cancelled, ingestion is
// detached and the log file released, in that order. Safe to call
// multiple times.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	watching := s.watching
	s.mu.Unlock()

	s.cancel()
	if watching {
		<-s.doneCh
		return nil
	}
	s.teardown()
	close(s.doneCh)
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.doneCh)

	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	case err := <-s.fatal:
		s.sendError(err)
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.teardown()
}

// teardown releases everything in dependency order. The session context
// is cancelled first so a listener blocked on a full event channel
// returns and releases the engine.
func (s *Session) teardown() {
	s.cancel()
	s.engine.Close()
	if err := s.ingestor.Stop(); err != nil {
		s.logger.Debug("stopping ingestor", "error", err)
	}
	close(s.errs)
	close(s.events)
	s.logger.Info("session closed")
}

// handle runs under the engine lock for every engine notification.
func (s *Session) handle(ev Event) {
	s.dispatch(ev)

	if s.scorer == nil || ev.Type != EventCastDetected || ev.ExpectedTime == nil {
		return
	}
	interval := time.Duration(ev.DelaySeconds * float64(time.Second))
	res := s.scorer.Evaluate(*ev.ExpectedTime, ev.Time, ev.Healer, ev.IsPlayerCast, interval)
	s.dispatch(Event{
		Type:    EventScoringResult,
		Time:    ev.Time,
		Session: s.id,
		Healer:  ev.Healer,
		Slot:    ev.Slot,
		Timing:  &res,
	})
}

// dispatch hands ev to the registered listeners, then to the event
// channel if the type filter allows it.
func (s *Session) dispatch(ev Event) {
	for _, l := range s.cfg.listeners {
		l(ev)
	}
	if !s.cfg.filter.Allows(ev.Type) {
		return
	}
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *Session) ingestError(err error) {
	if errors.Is(err, ErrIngestFailed) {
		select {
		case s.fatal <- err:
		default:
		}
		return
	}
	s.sendError(err)
}

// sendError delivers err without blocking; errors are dropped when the
// consumer lags behind.
func (s *Session) sendError(err error) {
	select {
	case s.errs <- err:
	default:
		s.logger.Warn("error dropped", "error", err)
	}
}
