package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

const prettyTime = "15:04:05"

// OutputEvent writes a notification in the given format.
func OutputEvent(format string, ev rotatonator.Event, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, w)
	case "pretty":
		return OutputPretty(ev, w)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes v as a single JSON line.
func OutputJSON(v any, w io.Writer) error {
	return json.NewEncoder(w).Encode(v)
}

// OutputPretty writes a notification as one human-readable line.
func OutputPretty(ev rotatonator.Event, w io.Writer) error {
	ts := ev.Time.Format(prettyTime)
	var err error
	switch ev.Type {
	case rotatonator.EventCastDetected:
		line := fmt.Sprintf("%s * %s cast", ts, ev.Healer)
		if ev.Slot > 0 {
			line += fmt.Sprintf(" (slot %d)", ev.Slot)
		}
		if ev.Target != "" {
			line += " on " + ev.Target
		}
		if ev.IsPlayerCast {
			line += " [you]"
		}
		_, err = fmt.Fprintln(w, line)
	case rotatonator.EventRosterReplaced:
		_, err = fmt.Fprintf(w, "%s # roster: %s (every %gs)\n", ts, strings.Join(ev.Healers, ", "), ev.DelaySeconds)
	case rotatonator.EventTurnStarting:
		_, err = fmt.Fprintf(w, "%s > %s is up in %.1fs\n", ts, ev.Healer, ev.TimeUntilCast)
	case rotatonator.EventTurnNow:
		_, err = fmt.Fprintf(w, "%s ! CAST NOW (%s)\n", ts, ev.Healer)
	case rotatonator.EventScoringResult:
		if ev.Timing == nil {
			return nil
		}
		r := ev.Timing
		_, err = fmt.Fprintf(w, "%s = %s %s %+d (%+.2fs, total %d, streak %d, %s)\n",
			ts, r.Healer, r.Accuracy, r.Points, r.Diff, r.TotalScore, r.Streak, r.Combo)
	default:
		_, err = fmt.Fprintf(w, "%s ? %s\n", ts, ev.Type)
	}
	return err
}

// lineRecord is the JSON shape of a parsed chat line.
type lineRecord struct {
	Kind         string     `json:"kind"`
	Time         *time.Time `json:"time,omitempty"`
	Speaker      string     `json:"speaker,omitempty"`
	Code         string     `json:"code,omitempty"`
	Slot         int        `json:"slot,omitempty"`
	Target       string     `json:"target,omitempty"`
	Healers      []string   `json:"healers,omitempty"`
	DelaySeconds int        `json:"delay_seconds,omitempty"`
}

func newLineRecord(l rotatonator.ChatLine) lineRecord {
	rec := lineRecord{
		Kind:         l.Kind.String(),
		Speaker:      l.Speaker,
		Code:         l.Code,
		Slot:         l.Slot,
		Target:       l.Target,
		Healers:      l.Healers,
		DelaySeconds: l.DelaySeconds,
	}
	if !l.Timestamp.IsZero() {
		ts := l.Timestamp
		rec.Time = &ts
	}
	return rec
}

// OutputLine writes a parsed chat line in the given format.
func OutputLine(format string, l rotatonator.ChatLine, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(newLineRecord(l), w)
	case "pretty":
		ts := "--:--:--"
		if !l.Timestamp.IsZero() {
			ts = l.Timestamp.Format(prettyTime)
		}
		var err error
		if l.Kind == rotatonator.ChatImport {
			_, err = fmt.Fprintf(w, "%s # import: %s (every %ds)\n", ts, strings.Join(l.Healers, ", "), l.DelaySeconds)
		} else {
			line := fmt.Sprintf("%s * %s %s (slot %d)", ts, l.Speaker, l.Code, l.Slot)
			if l.Target != "" {
				line += " on " + l.Target
			}
			_, err = fmt.Fprintln(w, line)
		}
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
