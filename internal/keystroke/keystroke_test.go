package keystroke

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"slices"
	"testing"
	"time"
)

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"1", true},
		{"0", true},
		{"a", true},
		{"Z", true},
		{"F1", true},
		{"f12", true},
		{"F13", false},
		{"F0", false},
		{"F", false},
		{"", false},
		{"12", false},
		{"ctrl+1", false},
		{"!", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := ValidKey(tt.key); got != tt.want {
				t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewCommandInjector_BadTemplate(t *testing.T) {
	for _, tmpl := range []string{"", "   ", "xdotool key 1"} {
		if _, err := NewCommandInjector(tmpl, nil); !errors.Is(err, ErrBadTemplate) {
			t.Errorf("NewCommandInjector(%q) error = %v, want ErrBadTemplate", tmpl, err)
		}
	}
}

func TestCommandInjector_Command(t *testing.T) {
	c, err := NewCommandInjector(DefaultTemplate, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Command("F5")
	want := []string{"xdotool", "key", "F5"}
	if !slices.Equal(got, want) {
		t.Errorf("Command() = %v, want %v", got, want)
	}
}

func TestCommandInjector_InvalidKey(t *testing.T) {
	c, err := NewCommandInjector("echo {key}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendKey(context.Background(), "ctrl+1"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SendKey() error = %v, want ErrInvalidKey", err)
	}
}

func requireUnix(t *testing.T, bin string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell environment")
	}
	if _, err := exec.LookPath(bin); err != nil {
		t.Skipf("%s not available", bin)
	}
}

func TestCommandInjector_SendKey(t *testing.T) {
	requireUnix(t, "echo")

	c, err := NewCommandInjector("echo {key}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendKey(context.Background(), "1"); err != nil {
		t.Errorf("SendKey() error = %v", err)
	}
}

func TestCommandInjector_CommandFails(t *testing.T) {
	requireUnix(t, "false")

	c, err := NewCommandInjector("false {key}", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendKey(context.Background(), "1"); err == nil {
		t.Error("SendKey() expected error from failing command")
	}
}

func TestCommandInjector_Timeout(t *testing.T) {
	requireUnix(t, "sleep")

	c, err := NewCommandInjector("sleep 5 {key}", nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := c.SendKey(ctx, "1"); err == nil {
		t.Error("SendKey() expected error after timeout")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("SendKey() took %v, want prompt cancellation", elapsed)
	}
}
