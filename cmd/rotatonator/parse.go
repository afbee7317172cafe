package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

var (
	// parse flags
	parseLogDir string
	parsePrefix string
	parseKinds  []string
	parseSince  string
	parseUntil  string
	parseFormat string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a chat log (batch mode)",
	Long: `Read a chat log from the beginning and print every chain cast marker
and roster import it contains.

Without a file argument the newest eqlog_*.txt in the log directory is used.

Examples:
  # Newest log in the auto-detected directory
  rotatonator parse

  # A specific file, imports only
  rotatonator parse eqlog_Healer_project1999.txt --kinds import

  # One raid night
  rotatonator parse --since "2026-01-19T20:00:00-05:00" --until "2026-01-19T23:30:00-05:00"

  # Count casts per healer
  rotatonator parse --kinds cast | jq -r .speaker | sort | uniq -c`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseLogDir, "log-dir", "d", "",
		"EverQuest Logs directory (auto-detected if not specified)")
	parseCmd.Flags().StringVarP(&parsePrefix, "prefix", "p", rotatonator.DefaultChainPrefix,
		"Chain prefix preceding the position code")
	parseCmd.Flags().StringSliceVar(&parseKinds, "kinds", nil,
		"Line kinds to include (comma-separated: cast,import)")
	parseCmd.Flags().StringVar(&parseSince, "since", "",
		"Only lines at/after timestamp (RFC3339 format)")
	parseCmd.Flags().StringVar(&parseUntil, "until", "",
		"Only lines up to timestamp (RFC3339 format)")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")

	registerKindCompletion(parseCmd, "kinds")
}

var kindsByName = map[string]rotatonator.ChatKind{
	rotatonator.ChatCast.String():   rotatonator.ChatCast,
	rotatonator.ChatImport.String(): rotatonator.ChatImport,
}

func validKindNames() []string {
	return []string{rotatonator.ChatCast.String(), rotatonator.ChatImport.String()}
}

func normalizeKinds(values []string) ([]rotatonator.ChatKind, error) {
	var kinds []rotatonator.ChatKind
	for _, raw := range values {
		k, ok := kindsByName[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return nil, fmt.Errorf("unknown line kind %q (valid: %s)", raw, strings.Join(validKindNames(), ", "))
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	if !ValidFormats[parseFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", parseFormat)
	}
	if strings.TrimSpace(parsePrefix) == "" {
		return fmt.Errorf("--prefix must not be empty")
	}
	kinds, err := normalizeKinds(parseKinds)
	if err != nil {
		return err
	}
	sinceTime, untilTime, err := parseTimeRange(parseSince, parseUntil)
	if err != nil {
		return err
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		path, err = rotatonator.FindLatestLog(parseLogDir)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []rotatonator.ParseOption{rotatonator.WithParsePrefix(parsePrefix)}
	if len(kinds) > 0 {
		opts = append(opts, rotatonator.WithParseKinds(kinds...))
	}
	if !sinceTime.IsZero() {
		opts = append(opts, rotatonator.WithParseSince(sinceTime))
	}
	if !untilTime.IsZero() {
		opts = append(opts, rotatonator.WithParseUntil(untilTime))
	}

	out := cmd.OutOrStdout()
	for l, err := range rotatonator.ParseFile(ctx, path, opts...) {
		if err != nil {
			// Ctrl+C: exit silently
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("parse error: %w", err)
		}
		if err := OutputLine(parseFormat, l, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}

// parseTimeRange parses since and until strings into time.Time values.
func parseTimeRange(since, until string) (time.Time, time.Time, error) {
	var sinceTime, untilTime time.Time
	var err error

	if since != "" {
		sinceTime, err = time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since format: %w (expected RFC3339, e.g., 2026-01-19T20:00:00Z)", err)
		}
	}

	if until != "" {
		untilTime, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until format: %w (expected RFC3339, e.g., 2026-01-19T20:00:00Z)", err)
		}
	}

	if !sinceTime.IsZero() && !untilTime.IsZero() && sinceTime.After(untilTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}

	return sinceTime, untilTime, nil
}
