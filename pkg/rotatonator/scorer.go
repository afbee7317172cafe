package rotatonator

import (
	"sort"
	"sync"
	"time"
)

// Scoring constants.
const (
	earlyPenalty = 25
	latePenalty  = 50
	perfectBase  = 100
	comboStep    = 50
	maxComboStep = 3

	minScaledInterval = 2 * time.Second
	maxScaledInterval = 7 * time.Second
)

// Thresholds returns the perfect window and the late boundary in seconds
// for a chain interval. Both scale linearly between a 2s and a 7s
// interval: 0.25/0.5 at 2s and 0.5/1.0 at 7s.
func Thresholds(interval time.Duration) (perfect, late float64) {
	p, l := windows(interval)
	return p.Seconds(), l.Seconds()
}

// windows computes the thresholds in whole nanoseconds so a cast exactly
// on a boundary compares equal to it.
func windows(interval time.Duration) (perfect, late time.Duration) {
	iv := min(max(interval, minScaledInterval), maxScaledInterval)
	off := iv - minScaledInterval
	span := maxScaledInterval - minScaledInterval
	perfect = 250*time.Millisecond + 250*time.Millisecond*off/span
	late = 500*time.Millisecond + 500*time.Millisecond*off/span
	return perfect, late
}

// LeaderboardEntry is one healer's standing.
type LeaderboardEntry struct {
	Healer string `json:"healer"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

type scoreEntry struct {
	name      string
	score     int
	streak    int
	badStreak int
}

// Scorer grades casts against their expected time and keeps a per-healer
// scoreboard. Healers are matched the way the roster matches them:
// ignoring case and Unicode composition. It is safe for concurrent use.
type Scorer struct {
	mu    sync.Mutex
	board map[string]*scoreEntry
}

// NewScorer returns an empty scoreboard.
func NewScorer() *Scorer {
	return &Scorer{board: make(map[string]*scoreEntry)}
}

// Evaluate grades a cast at actual against expected and updates the
// healer's streaks and score.
//
// A cast more than the perfect window early is Early (-25). A cast more
// than the late boundary late is Late (-50). Both reset the good streak
// and the score never drops below zero. Anything in between is Perfect
// and earns 100 plus a combo bonus of 50 per streak step, capped at 150.
func (s *Scorer) Evaluate(expected, actual time.Time, healer string, isPlayer bool, interval time.Duration) TimingResult {
	diff := actual.Sub(expected)
	perfect, late := windows(interval)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(healer)
	res := TimingResult{
		Healer:   healer,
		IsPlayer: isPlayer,
		Diff:     diff.Seconds(),
		Combo:    ComboNone,
	}

	switch {
	case diff < -perfect:
		res.Accuracy = AccuracyEarly
		res.Points = -earlyPenalty
		entry.miss(earlyPenalty)
	case diff > late:
		res.Accuracy = AccuracyLate
		res.Points = -latePenalty
		entry.miss(latePenalty)
	default:
		entry.badStreak = 0
		entry.streak++
		res.Accuracy = AccuracyPerfect
		res.Combo = comboLevel(entry.streak)
		res.Points = perfectBase + comboBonus(entry.streak)
		entry.score += res.Points
	}

	res.Streak = entry.streak
	res.BadStreak = entry.badStreak
	res.TotalScore = entry.score
	return res
}

func (e *scoreEntry) miss(penalty int) {
	e.streak = 0
	e.badStreak++
	e.score = max(0, e.score-penalty)
}

// Leaderboard returns every scored healer by descending score.
// Order among equal scores is unspecified.
func (s *Scorer) Leaderboard() []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LeaderboardEntry, 0, len(s.board))
	for _, e := range s.board {
		out = append(out, LeaderboardEntry{Healer: e.name, Score: e.score, Streak: e.streak})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Score returns a healer's cumulative score.
func (s *Scorer) Score(healer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.board[nameKey(healer)]; ok {
		return e.score
	}
	return 0
}

// Streak returns a healer's current good streak.
func (s *Scorer) Streak(healer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.board[nameKey(healer)]; ok {
		return e.streak
	}
	return 0
}

// BadStreak returns a healer's current run of non-perfect casts.
func (s *Scorer) BadStreak(healer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.board[nameKey(healer)]; ok {
		return e.badStreak
	}
	return 0
}

// Reset zeroes a healer's good streak. Score and bad streak are kept.
func (s *Scorer) Reset(healer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.board[nameKey(healer)]; ok {
		e.streak = 0
	}
}

// ResetAll clears the whole scoreboard.
func (s *Scorer) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.board)
}

// entry returns the healer's entry, creating it on first use. Must hold s.mu.
// The first spelling seen is kept for display.
func (s *Scorer) entry(healer string) *scoreEntry {
	key := nameKey(healer)
	e, ok := s.board[key]
	if !ok {
		e = &scoreEntry{name: healer}
		s.board[key] = e
	}
	return e
}

func comboLevel(streak int) ComboLevel {
	switch {
	case streak <= 0:
		return ComboNone
	case streak == 1:
		return ComboGreat
	case streak == 2:
		return ComboWow
	case streak == 3:
		return ComboHeatingUp
	case streak <= 5:
		return ComboPerfect
	case streak == 6:
		return ComboOnFire
	case streak == 7:
		return ComboHighScore
	default:
		return ComboPerfect
	}
}

func comboBonus(streak int) int {
	return min(max(streak-1, 0), maxComboStep) * comboStep
}
