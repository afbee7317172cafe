package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rotatonator/rotatonator-go/internal/config"
	"github.com/rotatonator/rotatonator-go/internal/keystroke"
	"github.com/rotatonator/rotatonator-go/internal/metrics"
	"github.com/rotatonator/rotatonator-go/internal/server"
	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

var (
	// watch flags
	watchLogFile      string
	watchLogDir       string
	watchPlayer       string
	watchHealers      []string
	watchPrefix       string
	watchInterval     float64
	watchHorizon      float64
	watchAutoCast     bool
	watchCastKey      string
	watchCastCommand  string
	watchScoring      bool
	watchPoll         bool
	watchHTTPAddr     string
	watchFormat       string
	watchIncludeTypes []string
	watchExcludeTypes []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a chat log and track the heal chain",
	Long: `Follow the newest EverQuest chat log and track the healer rotation.

Notifications are written as JSON Lines by default. Settings come from the
config file, ROTATONATOR_* environment variables and, highest priority,
the flags below.

Examples:
  # Track a three healer chain, you are Bob
  rotatonator watch --healers Alice,Bob,Carol --player Bob

  # Press 2 when it is your turn
  rotatonator watch --healers Alice,Bob --auto-cast --cast-key 2

  # Score everybody and expose /metrics and /leaderboard
  rotatonator watch --scoring --http-addr :9420

  # Only the notifications that need attention
  rotatonator watch --include-types turn_starting,turn_now --format pretty`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchLogFile, "log-file", "", "Chat log to follow (newest eqlog_*.txt if not specified)")
	f.StringVarP(&watchLogDir, "log-dir", "d", "", "EverQuest Logs directory (auto-detected if not specified)")
	f.StringVar(&watchPlayer, "player", "", "Your character (derived from the log file name if not specified)")
	f.StringSliceVar(&watchHealers, "healers", nil, "Ordered chain (comma-separated)")
	f.StringVarP(&watchPrefix, "prefix", "p", rotatonator.DefaultChainPrefix, "Chain prefix preceding the position code")
	f.Float64Var(&watchInterval, "interval", rotatonator.DefaultInterval.Seconds(), "Seconds between consecutive casts")
	f.Float64Var(&watchHorizon, "horizon", rotatonator.DefaultHorizon.Seconds(), "Seconds of expected casts to track ahead")
	f.BoolVar(&watchAutoCast, "auto-cast", false, "Press the cast key when your turn arrives")
	f.StringVar(&watchCastKey, "cast-key", rotatonator.DefaultCastKey, "Key to press (0-9, A-Z, F1-F12)")
	f.StringVar(&watchCastCommand, "cast-command", keystroke.DefaultTemplate, "Command that presses a key; {key} is replaced")
	f.BoolVar(&watchScoring, "scoring", false, "Score every healer's timing")
	f.BoolVar(&watchPoll, "poll", false, "Poll the log file instead of using file system notifications")
	f.StringVar(&watchHTTPAddr, "http-addr", "", "Serve /metrics, /roster and /leaderboard on this address")
	f.StringVarP(&watchFormat, "format", "f", "jsonl", "Output format: jsonl, pretty")
	f.StringSliceVar(&watchIncludeTypes, "include-types", nil,
		"Notification types to include (comma-separated: "+strings.Join(ValidEventTypeNames(), ",")+")")
	f.StringSliceVar(&watchExcludeTypes, "exclude-types", nil,
		"Notification types to exclude (comma-separated)")

	registerEventTypeCompletion(watchCmd, "include-types")
	registerEventTypeCompletion(watchCmd, "exclude-types")
}

// applyWatchFlags copies explicitly set flags over the loaded config.
func applyWatchFlags(flags *pflag.FlagSet, cfg *config.Config) {
	set := flags.Changed
	if set("log-file") {
		cfg.LogFile = watchLogFile
	}
	if set("log-dir") {
		cfg.LogDir = watchLogDir
	}
	if set("player") {
		cfg.Player = watchPlayer
	}
	if set("healers") {
		cfg.Healers = watchHealers
	}
	if set("prefix") {
		cfg.ChainPrefix = watchPrefix
	}
	if set("interval") {
		cfg.Interval = watchInterval
	}
	if set("horizon") {
		cfg.Horizon = watchHorizon
	}
	if set("auto-cast") {
		cfg.AutoCast = watchAutoCast
	}
	if set("cast-key") {
		cfg.CastKey = watchCastKey
	}
	if set("cast-command") {
		cfg.CastCommand = watchCastCommand
	}
	if set("scoring") {
		cfg.Scoring = watchScoring
	}
	if set("poll") {
		cfg.Poll = watchPoll
	}
	if set("http-addr") {
		cfg.HTTPAddr = watchHTTPAddr
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ValidFormats[watchFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", watchFormat)
	}
	includes, err := NormalizeEventTypes(watchIncludeTypes)
	if err != nil {
		return err
	}
	excludes, err := NormalizeEventTypes(watchExcludeTypes)
	if err != nil {
		return err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}
	applyWatchFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger := newLogger(stderr, cfg.LogLevel, cfg.LogFormat, verbose)

	logFile := cfg.LogFile
	if logFile == "" {
		if logFile, err = rotatonator.FindLatestLog(cfg.LogDir); err != nil {
			return err
		}
	}

	roster := cfg.Roster()
	if roster.Player == "" {
		roster.Player = rotatonator.CharacterName(logFile)
	}

	opts := []rotatonator.Option{
		rotatonator.WithLogger(logger),
		rotatonator.WithHorizon(cfg.HorizonDuration()),
		rotatonator.WithScoring(cfg.Scoring),
		rotatonator.WithPoll(cfg.Poll),
		rotatonator.WithFilter(includes, excludes),
		rotatonator.WithListener(func(ev rotatonator.Event) {
			if ev.Type == rotatonator.EventRosterReplaced {
				fmt.Fprintln(stderr, statusLine(roster.Player, ev.Healers))
			}
		}),
	}
	if cfg.AutoCast {
		injector, err := keystroke.NewCommandInjector(cfg.CastCommand, logger)
		if err != nil {
			return err
		}
		opts = append(opts, rotatonator.WithKeyInjector(injector))
	}

	var collector *metrics.Collector
	if cfg.HTTPAddr != "" {
		collector = metrics.NewCollector()
		collector.SetRoster(len(roster.Healers), roster.Interval.Seconds())
		opts = append(opts, rotatonator.WithListener(collector.Observe))
	}

	session, err := rotatonator.NewSession(logFile, roster, opts...)
	if err != nil {
		return err
	}
	defer session.Close()

	var srvErr <-chan error
	if collector != nil {
		scfg := server.Config{
			Engine:  session.Engine(),
			Metrics: collector.Handler(),
			Logger:  logger,
		}
		if sc := session.Scorer(); sc != nil {
			scfg.Board = sc
		}
		srv, err := server.Listen(cfg.HTTPAddr, server.NewRouter(scfg), logger)
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		srvErr = srv.Err()
	}

	events, errs, err := session.Watch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "watching %s (session %s)\n", logFile, session.ID())
	fmt.Fprintln(stderr, statusLine(roster.Player, roster.Healers))

	return outputLoop(ctx, events, errs, srvErr, cmd.OutOrStdout(), stderr)
}

func outputLoop(ctx context.Context, events <-chan rotatonator.Event, errs <-chan error, srvErr <-chan error, stdout, stderr io.Writer) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// A fatal ingest error may still be queued behind the last event.
				if errs != nil {
					for err := range errs {
						if errors.Is(err, rotatonator.ErrIngestFailed) {
							return err
						}
					}
				}
				return nil
			}
			if err := OutputEvent(watchFormat, ev, stdout); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				return nil // Channel closed
			}
			if errors.Is(err, rotatonator.ErrIngestFailed) {
				return err
			}
			fmt.Fprintf(stderr, "warning: %v\n", err)

		case err := <-srvErr:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			srvErr = nil

		case <-ctx.Done():
			return nil
		}
	}
}

// statusLine describes where the player sits in the chain.
func statusLine(player string, healers []string) string {
	if len(healers) == 0 {
		return "chain is empty, waiting for an import"
	}
	r := rotatonator.Roster{Healers: healers, Player: player}
	pos := r.PlayerPosition()
	if pos < 0 {
		return fmt.Sprintf("observing: %s is not in the chain of %d", displayName(player), len(healers))
	}
	next := healers[(pos+1)%len(healers)]
	return fmt.Sprintf("position %d of %d, next is %s", pos+1, len(healers), next)
}

func displayName(player string) string {
	if player == "" {
		return "player"
	}
	return player
}
