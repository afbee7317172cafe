package position

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		slot int
		want string
	}{
		{1, "111"},
		{9, "999"},
		{10, "AAA"},
		{12, "CCC"},
		{35, "ZZZ"},
	}

	for _, tt := range tests {
		got, err := Encode(tt.slot)
		if err != nil {
			t.Fatalf("Encode(%d) error = %v", tt.slot, err)
		}
		if got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.slot, got, tt.want)
		}
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	for _, slot := range []int{-1, 0, 36, 100} {
		_, err := Encode(slot)
		if !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("Encode(%d) error = %v, want ErrSlotOutOfRange", slot, err)
		}
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	for slot := MinSlot; slot <= MaxSlot; slot++ {
		code, err := Encode(slot)
		if err != nil {
			t.Fatalf("Encode(%d) error = %v", slot, err)
		}
		got, ok := Decode(code)
		if !ok || got != slot {
			t.Errorf("Decode(%q) = %d, %v; want %d, true", code, got, ok, slot)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		code   string
		want   int
		wantOK bool
	}{
		{"333", 3, true},
		{"1", 1, true},
		{"22", 2, true},
		{"4444", 4, true},
		{"ccc", 12, true},
		{"zZz", 0, false},
		{"", 0, false},
		{"000", 0, false},
		{"123", 0, false},
		{"33A", 0, false},
		{"!!!", 0, false},
		{"---", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := Decode(tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Decode(%q) = %d, %v; want %d, %v", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
