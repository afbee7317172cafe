// Package event defines the notifications emitted by the rotation engine.
//
// This package is separated from the main rotatonator package so that
// collaborators (metrics, HTTP, CLI output) can depend on the event shape
// without importing the engine.
package event

import (
	"sort"
	"strings"
	"time"
)

// Type represents the kind of notification.
type Type string

const (
	// CastDetected indicates a healer in the chain cast.
	CastDetected Type = "cast_detected"

	// RosterReplaced indicates the roster and interval were swapped by an import.
	RosterReplaced Type = "roster_replaced"

	// TurnStarting indicates the local player is next in the chain.
	TurnStarting Type = "turn_starting"

	// TurnNow indicates the local player's deadline elapsed.
	TurnNow Type = "turn_now"

	// ScoringResult carries a timing evaluation of a cast.
	ScoringResult Type = "scoring_result"
)

// allTypes is the canonical list of all notification types.
var allTypes = []Type{CastDetected, RosterReplaced, TurnStarting, TurnNow, ScoringResult}

// TypeNames returns a sorted list of all valid type names.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(allTypes))
	for _, t := range allTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseType converts a string to Type if valid.
// It is case-insensitive and trims leading/trailing whitespace.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	t, ok := typeByName[name]
	return t, ok
}

// Accuracy classifies a cast relative to its expected time.
type Accuracy string

const (
	Perfect Accuracy = "perfect"
	Early   Accuracy = "early"
	Late    Accuracy = "late"
)

// ComboLevel is the tier label derived from a healer's good streak.
type ComboLevel string

const (
	ComboNone      ComboLevel = "none"
	ComboGreat     ComboLevel = "great"
	ComboWow       ComboLevel = "wow"
	ComboHeatingUp ComboLevel = "heating_up"
	ComboPerfect   ComboLevel = "perfect"
	ComboOnFire    ComboLevel = "on_fire"
	ComboHighScore ComboLevel = "high_score"
)

// Timing is the outcome of one timing evaluation.
type Timing struct {
	Healer   string `json:"healer"`
	IsPlayer bool   `json:"is_player,omitempty"`

	// Diff is actual minus expected cast time in seconds
	// (negative = early, positive = late).
	Diff float64 `json:"diff"`

	Accuracy Accuracy   `json:"accuracy"`
	Combo    ComboLevel `json:"combo"`

	// Streak is the healer's good streak after this evaluation.
	Streak int `json:"streak"`

	// BadStreak is the healer's bad streak after this evaluation.
	BadStreak int `json:"bad_streak"`

	// Points awarded (or deducted) for this cast.
	Points int `json:"points"`

	// TotalScore is the healer's cumulative score.
	TotalScore int `json:"total_score"`
}

// Event is a single notification.
type Event struct {
	// Type is the notification type.
	Type Type `json:"type"`

	// Time is the cast time (cast_detected), the deadline (turn_starting,
	// turn_now) or the moment of the change otherwise.
	Time time.Time `json:"time"`

	// Session identifies the watching session that produced the event.
	Session string `json:"session,omitempty"`

	// Healer is the caster's name (cast_detected, scoring_result).
	Healer string `json:"healer,omitempty"`

	// Slot is the caster's 1-based roster position, 0 when not in the roster.
	Slot int `json:"slot,omitempty"`

	// Target is the heal target announced in the macro, if any.
	Target string `json:"target,omitempty"`

	// IsPlayerCast is true when the local player cast.
	IsPlayerCast bool `json:"is_player_cast,omitempty"`

	// ExpectedTime is when this slot was expected to cast, if tracked.
	ExpectedTime *time.Time `json:"expected_time,omitempty"`

	// LogTime is the timestamp written in the log line, if any.
	LogTime *time.Time `json:"log_time,omitempty"`

	// Healers is the new ordered roster (roster_replaced).
	Healers []string `json:"healers,omitempty"`

	// DelaySeconds is the new chain interval (roster_replaced).
	DelaySeconds float64 `json:"delay_seconds,omitempty"`

	// TimeUntilCast is the lead time before the player's deadline in
	// seconds (turn_starting).
	TimeUntilCast float64 `json:"time_until_cast,omitempty"`

	// Timing is the evaluation (scoring_result).
	Timing *Timing `json:"timing,omitempty"`
}
