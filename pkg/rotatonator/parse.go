package rotatonator

import (
	"bufio"
	"context"
	"errors"
	"iter"
	"os"
	"time"

	"github.com/rotatonator/rotatonator-go/internal/chatlog"
	"github.com/rotatonator/rotatonator-go/internal/logfinder"
	"github.com/rotatonator/rotatonator-go/internal/position"
)

// EncodeSlot returns the three-character position code for a 1-based
// slot: "111".."999" for 1-9 and "AAA".."ZZZ" for 10-35.
func EncodeSlot(slot int) (string, error) {
	return position.Encode(slot)
}

// DecodeSlot returns the slot a position code names. ok is false for any
// code that is not a run of one repeated digit 1-9 or letter.
func DecodeSlot(code string) (slot int, ok bool) {
	return position.Decode(code)
}

// ParseLine recognizes a single chat log line for the given chain prefix.
//
// Return values:
//   - (*ChatLine, nil): a cast marker or roster import
//   - (nil, nil): the line is neither (not an error)
//   - (nil, error): the prefix is empty
func ParseLine(line, prefix string) (*ChatLine, error) {
	p, err := chatlog.NewParser(prefix)
	if err != nil {
		return nil, err
	}
	return p.Parse(line), nil
}

// ParseOption configures ParseFile behavior.
type ParseOption func(*parseConfig)

type parseConfig struct {
	prefix string
	kinds  map[ChatKind]struct{}
	since  time.Time
	until  time.Time
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{prefix: DefaultChainPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParsePrefix sets the chain prefix. Default: "D&D".
func WithParsePrefix(prefix string) ParseOption {
	return func(c *parseConfig) {
		c.prefix = prefix
	}
}

// WithParseKinds restricts results to the given line kinds.
func WithParseKinds(kinds ...ChatKind) ParseOption {
	return func(c *parseConfig) {
		c.kinds = make(map[ChatKind]struct{}, len(kinds))
		for _, k := range kinds {
			c.kinds[k] = struct{}{}
		}
	}
}

// WithParseSince skips lines logged before t. Lines without a timestamp
// are kept.
func WithParseSince(t time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = t
	}
}

// WithParseUntil stops at the first line logged after t.
func WithParseUntil(t time.Time) ParseOption {
	return func(c *parseConfig) {
		c.until = t
	}
}

// ParseFile reads a chat log from the beginning and returns an iterator
// over recognized lines. The file is opened lazily on first iteration.
//
// The iterator yields (ChatLine, error) pairs. File open, scanner and
// context errors are yielded once and end the iteration.
//
// Example:
//
//	for l, err := range rotatonator.ParseFile(ctx, "eqlog_Healer_p1999.txt") {
//	    if err != nil {
//	        log.Printf("error: %v", err)
//	        break
//	    }
//	    fmt.Printf("%s slot %d\n", l.Kind, l.Slot)
//	}
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[ChatLine, error] {
	if path == "" {
		return func(yield func(ChatLine, error) bool) {
			yield(ChatLine{}, errors.New("rotatonator: path required"))
		}
	}

	cfg := applyParseOptions(opts)
	parser, err := chatlog.NewParser(cfg.prefix)
	if err != nil {
		return func(yield func(ChatLine, error) bool) {
			yield(ChatLine{}, err)
		}
	}

	return func(yield func(ChatLine, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(ChatLine{}, err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 512*1024)

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(ChatLine{}, err)
				return
			}

			l := parser.Parse(scanner.Text())
			if l == nil {
				continue
			}
			if cfg.kinds != nil {
				if _, ok := cfg.kinds[l.Kind]; !ok {
					continue
				}
			}
			if !l.Timestamp.IsZero() {
				if !cfg.since.IsZero() && l.Timestamp.Before(cfg.since) {
					continue
				}
				if !cfg.until.IsZero() && l.Timestamp.After(cfg.until) {
					return
				}
			}

			if !yield(*l, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(ChatLine{}, err)
		}
	}
}

// ParseFileAll collects every recognized line of a chat log. It stops on
// the first error and returns the lines collected so far.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]ChatLine, error) {
	lines := make([]ChatLine, 0, 64)
	for l, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// FindLatestLog returns the most recently written eqlog file in dir, or
// in the auto-detected log directory when dir is empty.
func FindLatestLog(dir string) (string, error) {
	resolved, err := logfinder.FindLogDir(dir)
	if err != nil {
		return "", err
	}
	return logfinder.FindLatestLogFile(resolved)
}

// CharacterName returns the character an eqlog file belongs to, or "".
func CharacterName(logFile string) string {
	return logfinder.CharacterName(logFile)
}
