package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	verbose    bool
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rotatonator",
	Short: "EverQuest healer chain tracker",
	Long: `rotatonator follows an EverQuest chat log and keeps track of a
complete-heal rotation.

It watches for chain cast markers ("D&D 333 CH - Tank - Healer"), tells
you when your turn is coming up, can press your cast key for you and can
score every healer's timing. Notifications are written as JSON Lines.

This is an unofficial tool and is not affiliated with Daybreak Game Company.`,
	SilenceUsage: true, // Don't show usage on error
}

func init() {
	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML config file (default: $ROTATONATOR_CONFIG)")

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(positionCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rotatonator %s (commit: %s, built: %s)\n", version, commit, date)
	},
}
