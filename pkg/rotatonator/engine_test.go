package rotatonator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, time.January, 19, 14, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 64)}
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) ofType(typ EventType) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) wait(t *testing.T, typ EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.ch:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s", typ)
			return Event{}
		}
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func chainRoster(player string, interval time.Duration, healers ...string) Roster {
	r := DefaultRoster()
	r.Healers = healers
	r.Player = player
	r.Interval = interval
	return r
}

func newTestEngine(t *testing.T, roster Roster, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	e, err := NewEngine(roster, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	rec := newRecorder()
	e.Subscribe(rec.listen)
	return e, rec
}

type fakeKeys struct {
	keys chan string
	err  error
}

func (f *fakeKeys) SendKey(_ context.Context, key string) error {
	f.keys <- key
	return f.err
}

func TestNewEngine_InvalidRoster(t *testing.T) {
	r := chainRoster("", 0, "A")
	_, err := NewEngine(r)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	r = chainRoster("", time.Second, "A")
	r.ChainPrefix = " "
	_, err = NewEngine(r)
	assert.ErrorIs(t, err, ErrInvalidRoster)
}

func TestEngine_ArmsWhenPlayerIsNext(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("B", 6*time.Second, "A", "B", "C"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventCastDetected, events[0].Type)
	assert.Equal(t, EventTurnStarting, events[1].Type)
	assert.Equal(t, 6.0, events[1].TimeUntilCast)
	assert.Equal(t, t0.Add(6*time.Second), events[1].Time)
	assert.Equal(t, "B", events[1].Healer)
	assert.Equal(t, 2, events[1].Slot)

	deadline, armed := e.Deadline()
	assert.True(t, armed)
	assert.Equal(t, t0.Add(6*time.Second), deadline)
}

func TestEngine_NoArmWhenSuccessorIsNotPlayer(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("B", 6*time.Second, "A", "B", "C"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "C", Time: t0}))

	assert.Empty(t, rec.ofType(EventTurnStarting))
	_, armed := e.Deadline()
	assert.False(t, armed)
}

func TestEngine_WrapsAroundRoster(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("A", 6*time.Second, "A", "B", "C"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "C", Time: t0}))

	require.Len(t, rec.ofType(EventTurnStarting), 1)
	_, armed := e.Deadline()
	assert.True(t, armed)
}

func TestEngine_MostRecentCastWins(t *testing.T) {
	const interval = 100 * time.Millisecond
	e, rec := newTestEngine(t, chainRoster("B", interval, "A", "B", "C"))

	start := time.Now()
	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: start}))
	second := start.Add(150 * time.Millisecond)
	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: second}))

	deadline, armed := e.Deadline()
	require.True(t, armed)
	assert.Equal(t, second.Add(interval), deadline)

	ev := rec.wait(t, EventTurnNow, 2*time.Second)
	assert.Equal(t, second.Add(interval), ev.Time)

	// Nothing else fires once the surviving deadline has.
	time.Sleep(150 * time.Millisecond)
	require.Len(t, rec.ofType(EventTurnNow), 1)
	assert.Len(t, rec.ofType(EventTurnStarting), 2)

	_, armed = e.Deadline()
	assert.False(t, armed)
}

func TestEngine_TurnNowAutoCast(t *testing.T) {
	r := chainRoster("B", 50*time.Millisecond, "A", "B")
	r.AutoCast = true
	r.CastKey = "F5"
	keys := &fakeKeys{keys: make(chan string, 1)}

	e, rec := newTestEngine(t, r, WithKeyInjector(keys))
	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))

	ev := rec.wait(t, EventTurnNow, 2*time.Second)
	assert.Equal(t, "B", ev.Healer)

	select {
	case key := <-keys.keys:
		assert.Equal(t, "F5", key)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for keystroke")
	}
}

func TestEngine_AutoCastFailureIsNotFatal(t *testing.T) {
	r := chainRoster("B", 20*time.Millisecond, "A", "B")
	r.AutoCast = true
	keys := &fakeKeys{keys: make(chan string, 2), err: errors.New("no window")}

	e, rec := newTestEngine(t, r, WithKeyInjector(keys))
	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))
	rec.wait(t, EventTurnNow, 2*time.Second)
	<-keys.keys

	// The engine keeps tracking after a failed injection.
	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))
	rec.wait(t, EventTurnNow, 2*time.Second)
}

func TestEngine_UnknownHealer(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("B", 3*time.Second, "A", "B", "C"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))
	before := e.ExpectedTimes()
	deadline, _ := e.Deadline()

	require.NoError(t, e.OnCast(CastEvent{Healer: "Zed", Time: t0.Add(time.Second)}))

	casts := rec.ofType(EventCastDetected)
	require.Len(t, casts, 2)
	assert.Equal(t, "Zed", casts[1].Healer)
	assert.Zero(t, casts[1].Slot)
	assert.Nil(t, casts[1].ExpectedTime)

	assert.Equal(t, before, e.ExpectedTimes())
	after, armed := e.Deadline()
	assert.True(t, armed)
	assert.Equal(t, deadline, after)
}

func TestEngine_CaseInsensitiveMatch(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("bob", 6*time.Second, "Alice", "Bob"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "ALICE", Time: t0}))
	require.NoError(t, e.OnCast(CastEvent{Healer: "BOB", Time: t0.Add(time.Second)}))

	casts := rec.ofType(EventCastDetected)
	require.Len(t, casts, 2)
	assert.Equal(t, 1, casts[0].Slot)
	assert.False(t, casts[0].IsPlayerCast)
	assert.True(t, casts[1].IsPlayerCast)
	assert.Len(t, rec.ofType(EventTurnStarting), 1)
}

func TestEngine_ObserveOnly(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("", 6*time.Second, "A", "B"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))
	require.NoError(t, e.OnCast(CastEvent{Healer: "B", Time: t0}))

	assert.Equal(t, -1, e.PlayerPosition())
	assert.Empty(t, rec.ofType(EventTurnStarting))
	for _, ev := range rec.ofType(EventCastDetected) {
		assert.False(t, ev.IsPlayerCast)
	}
}

func TestEngine_PlayerNotInRoster(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("Dora", 6*time.Second, "A", "B"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))

	assert.Equal(t, -1, e.PlayerPosition())
	assert.Len(t, rec.ofType(EventCastDetected), 1)
	assert.Empty(t, rec.ofType(EventTurnStarting))
}

func TestEngine_ExpectedTimes(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("", 3*time.Second, "A", "B", "C", "D"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))

	// Slot 1 would be 12s away, beyond the 10s horizon.
	assert.Equal(t, map[int]time.Time{
		2: t0.Add(3 * time.Second),
		3: t0.Add(6 * time.Second),
		4: t0.Add(9 * time.Second),
	}, e.ExpectedTimes())

	actual := t0.Add(3200 * time.Millisecond)
	require.NoError(t, e.OnCast(CastEvent{Healer: "B", Time: actual}))

	casts := rec.ofType(EventCastDetected)
	require.Len(t, casts, 2)
	assert.Nil(t, casts[0].ExpectedTime)
	require.NotNil(t, casts[1].ExpectedTime)
	assert.Equal(t, t0.Add(3*time.Second), *casts[1].ExpectedTime)
	assert.Equal(t, 3.0, casts[1].DelaySeconds)

	// Recomputed relative to the most recent cast.
	assert.Equal(t, map[int]time.Time{
		3: actual.Add(3 * time.Second),
		4: actual.Add(6 * time.Second),
		1: actual.Add(9 * time.Second),
	}, e.ExpectedTimes())
}

func TestEngine_ExpectedTimesSkipCaster(t *testing.T) {
	e, _ := newTestEngine(t, chainRoster("", 3*time.Second, "A", "B"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))
	assert.Equal(t, map[int]time.Time{2: t0.Add(3 * time.Second)}, e.ExpectedTimes())

	// The caster's next turn comes from the previous healer's cast.
	require.NoError(t, e.OnCast(CastEvent{Healer: "B", Time: t0.Add(3 * time.Second)}))
	assert.Equal(t, map[int]time.Time{1: t0.Add(6 * time.Second)}, e.ExpectedTimes())

	solo, _ := newTestEngine(t, chainRoster("", 3*time.Second, "A"), WithClock(fixedClock(t0)))
	require.NoError(t, solo.OnCast(CastEvent{Healer: "A", Time: t0}))
	assert.Empty(t, solo.ExpectedTimes())
}

func TestEngine_Horizon(t *testing.T) {
	e, _ := newTestEngine(t, chainRoster("", 3*time.Second, "A", "B", "C", "D"),
		WithClock(fixedClock(t0)),
		WithHorizon(5*time.Second),
	)

	require.NoError(t, e.OnCast(CastEvent{Healer: "A", Time: t0}))

	assert.Equal(t, map[int]time.Time{2: t0.Add(3 * time.Second)}, e.ExpectedTimes())
}

func TestEngine_ReplaceRoster(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("Bob", 6*time.Second, "Alice", "Bob"), WithClock(fixedClock(t0)))

	require.NoError(t, e.OnCast(CastEvent{Healer: "Alice", Time: t0}))
	_, armed := e.Deadline()
	require.True(t, armed)

	require.NoError(t, e.ReplaceRoster([]string{"Bob", "Carol", "Dave"}, 5*time.Second))

	_, armed = e.Deadline()
	assert.False(t, armed)
	assert.Empty(t, e.ExpectedTimes())

	replaced := rec.ofType(EventRosterReplaced)
	require.Len(t, replaced, 1)
	assert.Equal(t, []string{"Bob", "Carol", "Dave"}, replaced[0].Healers)
	assert.Equal(t, 5.0, replaced[0].DelaySeconds)

	r := e.Roster()
	assert.Equal(t, []string{"Bob", "Carol", "Dave"}, r.Healers)
	assert.Equal(t, 5*time.Second, r.Interval)
	assert.Equal(t, "Bob", r.Player)
	assert.Equal(t, 0, e.PlayerPosition())

	name, ok := e.HealerAt(3)
	assert.True(t, ok)
	assert.Equal(t, "Dave", name)
}

func TestEngine_ReplaceRosterInvalid(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("", 6*time.Second, "A"))

	assert.ErrorIs(t, e.ReplaceRoster(nil, 5*time.Second), ErrInvalidRoster)
	assert.ErrorIs(t, e.ReplaceRoster([]string{"A"}, 0), ErrInvalidRoster)
	assert.Empty(t, rec.all())
}

func TestEngine_ReplaceRosterCancelsTurn(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("B", 50*time.Millisecond, "A", "B"))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))
	require.NoError(t, e.ReplaceRoster([]string{"A", "B"}, time.Second))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.ofType(EventTurnNow))
}

func TestEngine_Close(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("B", 50*time.Millisecond, "A", "B"))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.ErrorIs(t, e.OnCast(CastEvent{Healer: "A"}), ErrClosed)
	assert.ErrorIs(t, e.ReplaceRoster([]string{"A"}, time.Second), ErrClosed)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.ofType(EventTurnNow))
}

func TestEngine_HealerAt(t *testing.T) {
	e, _ := newTestEngine(t, chainRoster("", time.Second, "A", "B", "C"))

	tests := []struct {
		slot int
		want string
		ok   bool
	}{
		{1, "A", true},
		{3, "C", true},
		{0, "", false},
		{4, "", false},
	}
	for _, tt := range tests {
		got, ok := e.HealerAt(tt.slot)
		assert.Equal(t, tt.ok, ok, "slot %d", tt.slot)
		assert.Equal(t, tt.want, got, "slot %d", tt.slot)
	}
}

func TestEngine_SessionIDStamped(t *testing.T) {
	e, rec := newTestEngine(t, chainRoster("", time.Second, "A"), WithSessionID("s-1"))

	require.NoError(t, e.OnCast(CastEvent{Healer: "A"}))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "s-1", events[0].Session)
	assert.False(t, events[0].Time.IsZero())
}
