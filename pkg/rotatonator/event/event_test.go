package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Type
		wantOK bool
	}{
		{"cast_detected exact", "cast_detected", CastDetected, true},
		{"roster_replaced exact", "roster_replaced", RosterReplaced, true},
		{"turn_starting exact", "turn_starting", TurnStarting, true},
		{"turn_now exact", "turn_now", TurnNow, true},
		{"scoring_result exact", "scoring_result", ScoringResult, true},

		{"uppercase", "TURN_NOW", TurnNow, true},
		{"mixed case", "Cast_Detected", CastDetected, true},

		{"surrounding spaces", " turn_now ", TurnNow, true},
		{"tab", "\tturn_starting\t", TurnStarting, true},

		{"unknown type", "unknown", "", false},
		{"empty string", "", "", false},
		{"internal space", "turn now", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseType(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ParseType(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseType_RoundTrip(t *testing.T) {
	for _, name := range TypeNames() {
		got, ok := ParseType(name)
		if !ok || string(got) != name {
			t.Errorf("ParseType(%q) = %q, %v", name, got, ok)
		}
	}
}

func TestTypeNames_Sorted(t *testing.T) {
	names := TypeNames()
	if len(names) != len(allTypes) {
		t.Fatalf("TypeNames() len = %d, want %d", len(names), len(allTypes))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("TypeNames() not sorted or duplicated: %q, %q", names[i-1], names[i])
		}
	}
}

func TestEvent_JSONOmitsEmpty(t *testing.T) {
	ev := Event{
		Type: TurnNow,
		Time: time.Date(2026, 1, 19, 14, 30, 45, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, key := range []string{"healer", "expected_time", "timing", "healers"} {
		if strings.Contains(got, `"`+key+`"`) {
			t.Errorf("json %s contains empty field %q", got, key)
		}
	}
	if !strings.Contains(got, `"type":"turn_now"`) {
		t.Errorf("json %s missing type", got)
	}
}
