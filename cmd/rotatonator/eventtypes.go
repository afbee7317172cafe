package main

import (
	"fmt"
	"strings"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
	"github.com/rotatonator/rotatonator-go/pkg/rotatonator/event"
)

// ValidEventTypeNames returns the sorted notification type names.
func ValidEventTypeNames() []string {
	return event.TypeNames()
}

// NormalizeEventTypes converts flag values to event types. It trims,
// lowercases and drops duplicates.
func NormalizeEventTypes(values []string) ([]rotatonator.EventType, error) {
	if len(values) == 0 {
		return nil, nil
	}

	result := make([]rotatonator.EventType, 0, len(values))
	seen := make(map[rotatonator.EventType]struct{})

	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("empty event type provided (input: %q); valid types: %s", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		t, ok := event.ParseType(raw)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q (valid: %s)", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result, nil
}

// RejectOverlap returns an error if any event type is in both includes and excludes.
func RejectOverlap(includes, excludes []rotatonator.EventType) error {
	ex := make(map[rotatonator.EventType]struct{}, len(excludes))
	for _, t := range excludes {
		ex[t] = struct{}{}
	}
	for _, t := range includes {
		if _, ok := ex[t]; ok {
			return fmt.Errorf("event type %q cannot be both included and excluded", t)
		}
	}
	return nil
}
