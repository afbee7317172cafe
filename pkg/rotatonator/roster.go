package rotatonator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Roster defaults.
const (
	DefaultChainPrefix = "D&D"
	DefaultInterval    = 6 * time.Second
	DefaultCastKey     = "1"
)

// Roster is the chain configuration: who heals in which order, how far
// apart, and how their casts are announced in chat.
type Roster struct {
	// Healers is the ordered chain. Slot N is Healers[N-1].
	Healers []string `json:"healers"`

	// Player is the local character. Empty means observe only: no turn
	// deadlines are armed.
	Player string `json:"player,omitempty"`

	// ChainPrefix is the chat token that precedes a position code.
	ChainPrefix string `json:"chain_prefix"`

	// Interval is the delay between consecutive healers' casts.
	Interval time.Duration `json:"interval"`

	// AutoCast sends CastKey to the game when the player's deadline elapses.
	AutoCast bool   `json:"auto_cast,omitempty"`
	CastKey  string `json:"cast_key,omitempty"`
}

// DefaultRoster returns an empty roster with the default prefix,
// interval and cast key.
func DefaultRoster() Roster {
	return Roster{
		ChainPrefix: DefaultChainPrefix,
		Interval:    DefaultInterval,
		CastKey:     DefaultCastKey,
	}
}

// Validate reports whether the roster can drive a chain. An empty healer
// list is allowed: an import may supply it later.
func (r Roster) Validate() error {
	if r.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidRoster, r.Interval)
	}
	if strings.TrimSpace(r.ChainPrefix) == "" {
		return fmt.Errorf("%w: chain prefix is empty", ErrInvalidRoster)
	}
	for i, h := range r.Healers {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%w: healer at slot %d has no name", ErrInvalidRoster, i+1)
		}
	}
	if r.AutoCast && r.CastKey == "" {
		return fmt.Errorf("%w: auto-cast needs a cast key", ErrInvalidRoster)
	}
	return nil
}

// Position returns the 0-based index of name in the roster, matched
// case-insensitively, or -1 when absent.
func (r Roster) Position(name string) int {
	if name == "" {
		return -1
	}
	return slices.IndexFunc(r.Healers, func(h string) bool {
		return sameName(h, name)
	})
}

// sameName compares character names ignoring case and Unicode composition,
// so a name typed into a config file matches the one the client logs.
func sameName(a, b string) bool {
	return nameKey(a) == nameKey(b)
}

// nameKey is the case-folded NFC form of a character name.
func nameKey(name string) string {
	// A Caser is stateful; one per call keeps nameKey safe for concurrent use.
	return norm.NFC.String(cases.Fold().String(name))
}

// PlayerPosition returns the player's 0-based index, or -1 when no player
// is configured or the player is not in the roster.
func (r Roster) PlayerPosition() int {
	return r.Position(r.Player)
}

// HealerAt returns the healer occupying a 1-based slot.
func (r Roster) HealerAt(slot int) (string, bool) {
	if slot < 1 || slot > len(r.Healers) {
		return "", false
	}
	return r.Healers[slot-1], true
}

func (r Roster) clone() Roster {
	r.Healers = slices.Clone(r.Healers)
	return r
}
