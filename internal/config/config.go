// Package config defines the watcher configuration and how it is layered
// from defaults, an optional YAML file and ROTATONATOR_* environment
// variables.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotatonator/rotatonator-go/internal/keystroke"
	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the diagnostic log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// LogDir and LogFile locate the chat log. LogFile wins when both are set.
	LogDir  string `koanf:"log_dir"`
	LogFile string `koanf:"log_file"`

	// Player is the local character. Empty derives it from the log file name.
	Player string `koanf:"player"`

	// Healers is the ordered chain.
	Healers []string `koanf:"healers"`

	// ChainPrefix is the chat token that precedes a position code.
	ChainPrefix string `koanf:"chain_prefix"`

	// Interval and Horizon are in seconds.
	Interval float64 `koanf:"interval"`
	Horizon  float64 `koanf:"horizon"`

	// AutoCast runs CastCommand with CastKey when the player's turn arrives.
	AutoCast    bool   `koanf:"auto_cast"`
	CastKey     string `koanf:"cast_key"`
	CastCommand string `koanf:"cast_command"`

	// Scoring enables timing evaluation of every tracked cast.
	Scoring bool `koanf:"scoring"`

	// Poll uses polling instead of file system notifications.
	Poll bool `koanf:"poll"`

	// HTTPAddr serves /metrics, /leaderboard and /roster when non-empty.
	HTTPAddr string `koanf:"http_addr"`
}

// New returns a Config populated with defaults. Context is accepted first
// to match Load.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		ChainPrefix: rotatonator.DefaultChainPrefix,
		Interval:    rotatonator.DefaultInterval.Seconds(),
		Horizon:     rotatonator.DefaultHorizon.Seconds(),
		CastKey:     rotatonator.DefaultCastKey,
		CastCommand: keystroke.DefaultTemplate,
	}
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks field ranges.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%w: log_level %q (valid: %s)", ErrInvalidConfig, c.LogLevel, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("%w: log_format %q (valid: %s)", ErrInvalidConfig, c.LogFormat, strings.Join(validFormats, ", "))
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ChainPrefix) == "" {
		return fmt.Errorf("%w: chain_prefix must not be empty", ErrInvalidConfig)
	}
	if c.AutoCast && strings.TrimSpace(c.CastCommand) == "" {
		return fmt.Errorf("%w: auto_cast needs cast_command", ErrInvalidConfig)
	}
	if c.AutoCast && !keystroke.ValidKey(c.CastKey) {
		return fmt.Errorf("%w: cast_key %q (valid: 0-9, A-Z, F1-F12)", ErrInvalidConfig, c.CastKey)
	}
	return nil
}

// IntervalDuration returns Interval as a duration.
func (c *Config) IntervalDuration() time.Duration {
	return seconds(c.Interval)
}

// HorizonDuration returns Horizon as a duration.
func (c *Config) HorizonDuration() time.Duration {
	return seconds(c.Horizon)
}

// Roster builds the chain roster described by the configuration.
func (c *Config) Roster() rotatonator.Roster {
	return rotatonator.Roster{
		Healers:     slices.Clone(c.Healers),
		Player:      c.Player,
		ChainPrefix: c.ChainPrefix,
		Interval:    c.IntervalDuration(),
		AutoCast:    c.AutoCast,
		CastKey:     c.CastKey,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
