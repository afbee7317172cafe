// Package position converts rotation slots to and from the repeated-character
// codes healers put in their chat macros.
//
// Slots 1-9 are written with the digit ("111", "222", ...), slots 10-35 with a
// letter ("AAA" is 10, "ZZZ" is 35).
package position

import (
	"errors"
	"fmt"
	"strings"
)

// Slot bounds.
const (
	MinSlot = 1
	MaxSlot = 35
)

// CodeWidth is the number of characters Encode emits.
const CodeWidth = 3

// ErrSlotOutOfRange is returned by Encode for slots outside [MinSlot, MaxSlot].
var ErrSlotOutOfRange = errors.New("slot out of range")

// Encode returns the fixed-width code for slot.
func Encode(slot int) (string, error) {
	if slot < MinSlot || slot > MaxSlot {
		return "", fmt.Errorf("%w: %d (must be %d-%d)", ErrSlotOutOfRange, slot, MinSlot, MaxSlot)
	}
	return strings.Repeat(string(symbol(slot)), CodeWidth), nil
}

// Decode returns the slot for code.
//
// A code is valid when it is non-empty, every character is identical, and
// that character is a digit 1-9 or a letter A-Z (case-insensitive). Any
// length is accepted: macros exported per position write "1", "22", "333".
// The boolean is false for invalid codes so callers can ignore malformed chat.
func Decode(code string) (int, bool) {
	if code == "" {
		return 0, false
	}
	first := code[0]
	for i := 1; i < len(code); i++ {
		if code[i] != first {
			return 0, false
		}
	}

	switch {
	case first >= '1' && first <= '9':
		return int(first - '0'), true
	case first >= 'A' && first <= 'Z':
		return 10 + int(first-'A'), true
	case first >= 'a' && first <= 'z':
		return 10 + int(first-'a'), true
	}
	return 0, false
}

// symbol returns the character used for a valid slot.
func symbol(slot int) byte {
	if slot <= 9 {
		return byte('0' + slot)
	}
	return byte('A' + slot - 10)
}
