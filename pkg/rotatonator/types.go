package rotatonator

import (
	"github.com/rotatonator/rotatonator-go/internal/chatlog"
	"github.com/rotatonator/rotatonator-go/pkg/rotatonator/event"
)

// Re-export event types for convenience.
// Users can import just "github.com/rotatonator/rotatonator-go/pkg/rotatonator"
// and use rotatonator.Event, rotatonator.EventCastDetected, etc.

// Event is a notification emitted by the rotation engine or session.
type Event = event.Event

// EventType represents the type of notification.
type EventType = event.Type

// TimingResult is the outcome of a timing evaluation.
type TimingResult = event.Timing

// Accuracy classifies a cast relative to its expected time.
type Accuracy = event.Accuracy

// ComboLevel is the tier label derived from a good streak.
type ComboLevel = event.ComboLevel

// Event type constants.
const (
	EventCastDetected   = event.CastDetected
	EventRosterReplaced = event.RosterReplaced
	EventTurnStarting   = event.TurnStarting
	EventTurnNow        = event.TurnNow
	EventScoringResult  = event.ScoringResult
)

// Accuracy constants.
const (
	AccuracyPerfect = event.Perfect
	AccuracyEarly   = event.Early
	AccuracyLate    = event.Late
)

// Combo level constants.
const (
	ComboNone      = event.ComboNone
	ComboGreat     = event.ComboGreat
	ComboWow       = event.ComboWow
	ComboHeatingUp = event.ComboHeatingUp
	ComboPerfect   = event.ComboPerfect
	ComboOnFire    = event.ComboOnFire
	ComboHighScore = event.ComboHighScore
)

// ChatLine is a recognized chat log line: a chain cast or a roster import.
type ChatLine = chatlog.Line

// ChatKind distinguishes cast lines from import lines.
type ChatKind = chatlog.Kind

// Chat line kinds.
const (
	ChatCast   = chatlog.KindCast
	ChatImport = chatlog.KindImport
)
