// Package keystroke sends the auto-cast key to the game client by running
// an external command such as xdotool.
package keystroke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Placeholder is replaced by the key in a command template.
const Placeholder = "{key}"

// DefaultTemplate works with xdotool on X11 desktops.
const DefaultTemplate = "xdotool key " + Placeholder

// Sentinel errors.
var (
	ErrInvalidKey  = errors.New("invalid key")
	ErrBadTemplate = errors.New("invalid command template")
)

// ValidKey reports whether key is a hotbar key the game accepts:
// a digit, a letter or F1-F12.
func ValidKey(key string) bool {
	if len(key) == 1 {
		c := key[0]
		return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	if len(key) < 2 || (key[0] != 'F' && key[0] != 'f') {
		return false
	}
	switch key[1:] {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12":
		return true
	}
	return false
}

// CommandInjector runs a command per keystroke.
type CommandInjector struct {
	args   []string
	logger *slog.Logger
}

// NewCommandInjector parses template, a space separated command line
// containing {key}. A nil logger discards output.
func NewCommandInjector(template string, logger *slog.Logger) (*CommandInjector, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadTemplate)
	}
	if !strings.Contains(template, Placeholder) {
		return nil, fmt.Errorf("%w: %q has no %s", ErrBadTemplate, template, Placeholder)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CommandInjector{args: args, logger: logger}, nil
}

// Command returns the argv that SendKey would run for key.
func (c *CommandInjector) Command(key string) []string {
	argv := make([]string, len(c.args))
	for i, a := range c.args {
		argv[i] = strings.ReplaceAll(a, Placeholder, key)
	}
	return argv
}

// SendKey runs the command for key and waits for it to exit.
func (c *CommandInjector) SendKey(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	argv := c.Command(key)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	c.logger.Debug("sending key", "key", key, "command", argv[0])
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
