package rotatonator

import (
	"context"
	"log/slog"
	"time"
)

// Defaults applied when no option overrides them.
const (
	// DefaultHorizon is how far ahead expected cast times are tracked.
	DefaultHorizon = 10 * time.Second

	// DefaultKeyTimeout bounds a single keystroke injection.
	DefaultKeyTimeout = 2 * time.Second

	// DefaultEventBuffer is the capacity of a session's event channel.
	DefaultEventBuffer = 64
)

// errBuffer is the capacity of a session's error channel.
const errBuffer = 16

// KeyInjector sends a keystroke to the game client.
type KeyInjector interface {
	SendKey(ctx context.Context, key string) error
}

// Listener receives engine notifications. Listeners are invoked
// synchronously in emission order and must not call back into the engine.
type Listener func(Event)

// Option configures an Engine, Ingestor or Session using the functional
// options pattern. Options irrelevant to the receiver are ignored.
type Option func(*config)

// config holds internal configuration shared by the engine, ingestor
// and session.
type config struct {
	logger      *slog.Logger
	now         func() time.Time
	horizon     time.Duration
	keys        KeyInjector
	keyTimeout  time.Duration
	scoring     bool
	scorer      *Scorer
	poll        bool
	filter      *compiledFilter
	sessionID   string
	listeners   []Listener
	eventBuffer int
	onError     func(error)
}

func defaultConfig() *config {
	return &config{
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
		horizon:     DefaultHorizon,
		keyTimeout:  DefaultKeyTimeout,
		eventBuffer: DefaultEventBuffer,
	}
}

// applyOptions applies functional options to a config.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithLogger sets the slog logger for diagnostics.
// If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for observation times and
// deadline arithmetic.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHorizon sets how far ahead expected cast times are tracked.
// Default: 10 seconds. Non-positive values are ignored.
func WithHorizon(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.horizon = d
		}
	}
}

// WithKeyInjector sets the injector used when the roster enables auto-cast.
func WithKeyInjector(k KeyInjector) Option {
	return func(c *config) {
		c.keys = k
	}
}

// WithKeyTimeout bounds each keystroke injection. Default: 2 seconds.
func WithKeyTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.keyTimeout = d
		}
	}
}

// WithScoring enables timing evaluation of casts with a known expected
// time. Results are emitted as scoring_result events.
func WithScoring(enabled bool) Option {
	return func(c *config) {
		c.scoring = enabled
	}
}

// WithScorer shares an existing scoreboard with the session and enables
// scoring. Useful when the board outlives a single session.
func WithScorer(s *Scorer) Option {
	return func(c *config) {
		c.scorer = s
		c.scoring = s != nil
	}
}

// WithPoll uses polling instead of file system notifications.
func WithPoll(poll bool) Option {
	return func(c *config) {
		c.poll = poll
	}
}

// WithIncludeTypes restricts a session's event channel to the specified
// types. If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithExcludeTypes drops the specified types from a session's event
// channel. Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithFilter sets both include and exclude lists at once.
func WithFilter(include, exclude []EventType) Option {
	return func(c *config) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(c *config) {
		c.sessionID = id
	}
}

// WithListener registers a listener that sees every event a session
// produces, before type filtering.
func WithListener(l Listener) Option {
	return func(c *config) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithEventBuffer sets the capacity of a session's event channel.
func WithEventBuffer(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.eventBuffer = n
		}
	}
}

// WithErrorHandler receives non-fatal ingestion errors and the final
// ErrIngestFailed of an Ingestor used on its own.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}
