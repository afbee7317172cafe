package rotatonator

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// CastEvent is one observed chain cast.
type CastEvent struct {
	// Healer is the caster's name as it appears in the roster.
	Healer string

	// Target is the heal target announced in the macro, if any.
	Target string

	// Slot is the 1-based position code the cast announced, 0 if unknown.
	// The engine resolves the caster by name, not by Slot.
	Slot int

	// Time is the wall-clock observation time. Zero means now.
	Time time.Time

	// LogTime is the timestamp written in the chat line, if any.
	LogTime time.Time
}

// Engine tracks a heal chain: it arms the player's turn deadline when the
// player is next, keeps the expected cast time of upcoming slots and
// notifies listeners of every change.
//
// All state is guarded by a single mutex. Casts from the ingestor and
// deadline firings from timers are serialized through it, and at most one
// deadline is armed at any time.
type Engine struct {
	cfg    *config
	logger *slog.Logger

	mu        sync.Mutex
	roster    Roster
	listeners []Listener
	expected  map[int]time.Time // 0-based index -> expected cast time
	timer     *time.Timer
	deadline  time.Time
	gen       uint64
	closed    bool
}

// NewEngine creates an engine for the given roster.
func NewEngine(roster Roster, opts ...Option) (*Engine, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	return &Engine{
		cfg:      cfg,
		logger:   cfg.logger,
		roster:   roster.clone(),
		expected: make(map[int]time.Time),
	}, nil
}

// Subscribe registers a listener for all subsequent notifications.
func (e *Engine) Subscribe(l Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Roster returns a copy of the current roster.
func (e *Engine) Roster() Roster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster.clone()
}

// PlayerPosition returns the player's 0-based roster index, or -1.
func (e *Engine) PlayerPosition() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster.PlayerPosition()
}

// HealerAt returns the healer currently occupying a 1-based slot.
func (e *Engine) HealerAt(slot int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster.HealerAt(slot)
}

// Deadline returns the armed turn deadline, if any.
func (e *Engine) Deadline() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deadline, e.timer != nil
}

// ExpectedTimes returns the tracked expected cast times keyed by 1-based slot.
func (e *Engine) ExpectedTimes() map[int]time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int]time.Time, len(e.expected))
	for idx, t := range e.expected {
		out[idx+1] = t
	}
	return out
}

// ReplaceRoster swaps the healer list and interval, dropping the armed
// deadline and every expected time.
func (e *Engine) ReplaceRoster(names []string, delay time.Duration) error {
	if len(names) == 0 {
		return ErrInvalidRoster
	}
	if delay <= 0 {
		return ErrInvalidRoster
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.roster.Healers = slices.Clone(names)
	e.roster.Interval = delay
	e.disarm()
	clear(e.expected)

	e.logger.Info("roster replaced", "healers", len(names), "interval", delay)
	e.emit(Event{
		Type:         EventRosterReplaced,
		Time:         e.cfg.now(),
		Healers:      slices.Clone(names),
		DelaySeconds: delay.Seconds(),
	})
	return nil
}

// OnCast records a cast. A healer outside the roster is still reported
// but changes nothing else.
func (e *Engine) OnCast(c CastEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	if c.Time.IsZero() {
		c.Time = e.cfg.now()
	}

	idx := e.roster.Position(c.Healer)
	ev := Event{
		Type:         EventCastDetected,
		Time:         c.Time,
		Healer:       c.Healer,
		Target:       c.Target,
		IsPlayerCast: e.roster.Player != "" && sameName(c.Healer, e.roster.Player),
		DelaySeconds: e.roster.Interval.Seconds(),
	}
	if !c.LogTime.IsZero() {
		lt := c.LogTime
		ev.LogTime = &lt
	}
	if idx >= 0 {
		ev.Slot = idx + 1
		if exp, ok := e.expected[idx]; ok {
			ev.ExpectedTime = &exp
		}
	}
	e.emit(ev)

	if idx < 0 {
		e.logger.Debug("cast from healer outside roster", "healer", c.Healer)
		return nil
	}

	n := len(e.roster.Healers)
	if player := e.roster.PlayerPosition(); player >= 0 && (idx+1)%n == player {
		deadline := c.Time.Add(e.roster.Interval)
		e.arm(deadline)
		e.emit(Event{
			Type:          EventTurnStarting,
			Time:          deadline,
			Healer:        e.roster.Healers[player],
			Slot:          player + 1,
			TimeUntilCast: e.roster.Interval.Seconds(),
		})
	}

	e.recompute(idx, c.Time)
	return nil
}

// Close cancels the armed deadline and stops all further notifications.
// Safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.disarm()
	return nil
}

// recompute rebuilds the expected times of every slot other than the
// caster's, relative to a cast by idx at t. Slots whose lead time exceeds
// the horizon are not tracked.
func (e *Engine) recompute(idx int, t time.Time) {
	clear(e.expected)
	n := len(e.roster.Healers)
	for d := 1; d < n; d++ {
		lead := time.Duration(d) * e.roster.Interval
		if lead > e.cfg.horizon {
			break
		}
		e.expected[(idx+d)%n] = t.Add(lead)
	}
}

// arm replaces any armed deadline. Must hold e.mu.
func (e *Engine) arm(deadline time.Time) {
	e.disarm()
	gen := e.gen
	e.deadline = deadline
	wait := deadline.Sub(e.cfg.now())
	if wait < 0 {
		wait = 0
	}
	e.timer = time.AfterFunc(wait, func() { e.fire(gen) })
	e.logger.Debug("turn deadline armed", "deadline", deadline, "in", wait)
}

// disarm cancels the armed deadline. Bumping the generation turns a
// callback that already started into a no-op. Must hold e.mu.
func (e *Engine) disarm() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.deadline = time.Time{}
	e.gen++
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen || e.timer == nil {
		return
	}
	deadline := e.deadline
	e.timer = nil
	e.deadline = time.Time{}

	ev := Event{Type: EventTurnNow, Time: deadline}
	if player := e.roster.PlayerPosition(); player >= 0 {
		ev.Healer = e.roster.Healers[player]
		ev.Slot = player + 1
	}
	e.emit(ev)

	if e.roster.AutoCast {
		e.sendKey(e.roster.CastKey)
	}
}

// sendKey injects key without blocking the caller. Failures are logged.
func (e *Engine) sendKey(key string) {
	keys := e.cfg.keys
	if keys == nil {
		e.logger.Warn("auto-cast enabled without a key injector")
		return
	}
	timeout := e.cfg.keyTimeout
	logger := e.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := keys.SendKey(ctx, key); err != nil {
			logger.Warn("auto-cast failed", "key", key, "error", err)
		}
	}()
}

// emit delivers ev to every listener in registration order. Must hold e.mu.
func (e *Engine) emit(ev Event) {
	if ev.Session == "" {
		ev.Session = e.cfg.sessionID
	}
	for _, l := range e.listeners {
		l(ev)
	}
}
