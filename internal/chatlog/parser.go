// Package chatlog recognizes rotation messages in EverQuest chat log lines.
//
// Two grammars are supported:
//
//	[Mon Jan 19 14:30:45 2026] Healer1 tells the raid, 'D&D 333 CH - Tank - Healer1'
//	[Mon Jan 19 14:30:45 2026] Lead tells the raid, 'Rotatonator set_chain: 111 A, 222 B, set_delay: 3'
//
// The first is a cast marker, the second a roster import.
package chatlog

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotatonator/rotatonator-go/internal/position"
)

// Keywords of the chat protocol.
const (
	// MarkerKeyword follows the position code in a cast marker.
	MarkerKeyword = "CH"

	// AppKeyword introduces a roster import.
	AppKeyword = "Rotatonator"
)

// TimestampLayout is the layout of the bracketed EverQuest log timestamp.
const TimestampLayout = "Mon Jan 02 15:04:05 2006"

// ErrEmptyPrefix is returned by NewParser for an empty chain prefix.
var ErrEmptyPrefix = errors.New("chain prefix must not be empty")

// Kind identifies the grammar a line matched.
type Kind int

const (
	// KindCast is a cast marker.
	KindCast Kind = iota + 1
	// KindImport is a roster import.
	KindImport
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCast:
		return "cast"
	case KindImport:
		return "import"
	default:
		return "unknown"
	}
}

// Line is a recognized chat line.
type Line struct {
	Kind Kind

	// Timestamp is the bracketed log time; zero when absent or unparsable.
	Timestamp time.Time

	// Speaker is the first word after the timestamp (cast markers only).
	Speaker string

	// Code and Slot are the raw and decoded position code (cast markers only).
	Code string
	Slot int

	// Target is the heal target from "CH - target - ..." (cast markers only).
	Target string

	// Healers and DelaySeconds describe a roster import. Healers may be empty
	// when every segment was malformed.
	Healers      []string
	DelaySeconds int
}

var (
	importPattern  = regexp.MustCompile(`(?i)` + AppKeyword + `\s+set_chain:\s*(.+?)\s*,\s*set_delay:\s*(\d+)`)
	segmentPattern = regexp.MustCompile(`^[0-9A-Za-z]+\s+(.+)$`)
	targetPattern  = regexp.MustCompile(`^\s*-\s*([^'\-]*?)\s*(?:-|'|$)`)
	stampPattern   = regexp.MustCompile(`^\[([^\]]*)\]`)
)

// Parser matches lines against both grammars for one chain prefix.
// A Parser is safe for concurrent use.
type Parser struct {
	prefix string
	cast   *regexp.Regexp
}

// NewParser compiles the cast grammar for prefix (e.g. "D&D").
func NewParser(prefix string) (*Parser, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	// RE2 has no backreferences; uniformity of the code is checked by position.Decode.
	pattern := `(?i)^\[[^\]]*\]\s+(\S+).*?,\s+'` + regexp.QuoteMeta(prefix) +
		`\s+([0-9A-Za-z]+)\s+` + MarkerKeyword + `\b(.*)$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Parser{prefix: prefix, cast: re}, nil
}

// Prefix returns the chain prefix the parser matches.
func (p *Parser) Prefix() string {
	return p.prefix
}

// Parse returns the recognized line, or nil when line matches neither
// grammar. The import grammar is checked first. Cast markers whose code is
// not a valid position are ignored.
func (p *Parser) Parse(line string) *Line {
	line = strings.TrimRight(line, "\r\n")

	if l := parseImport(line); l != nil {
		l.Timestamp = ParseTimestamp(line)
		return l
	}

	m := p.cast.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	slot, ok := position.Decode(m[2])
	if !ok {
		return nil
	}

	l := &Line{
		Kind:      KindCast,
		Timestamp: ParseTimestamp(line),
		Speaker:   m[1],
		Code:      m[2],
		Slot:      slot,
	}
	if t := targetPattern.FindStringSubmatch(m[3]); t != nil {
		l.Target = t[1]
	}
	return l
}

func parseImport(line string) *Line {
	m := importPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	delay, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	return &Line{
		Kind:         KindImport,
		Healers:      ParseChain(m[1]),
		DelaySeconds: delay,
	}
}

// ParseChain extracts healer names from "111 Name1, 222 Name2, ...".
// Segments that are not "<token> <name>" are skipped.
func ParseChain(chain string) []string {
	var names []string
	for _, seg := range strings.Split(chain, ",") {
		m := segmentPattern.FindStringSubmatch(strings.TrimSpace(seg))
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseTimestamp returns the bracketed timestamp at the start of line in
// local time, or the zero time.
func ParseTimestamp(line string) time.Time {
	m := stampPattern.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(m[1]), time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
