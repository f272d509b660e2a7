// Package main is the entry point for the feinstaubalarm CLI.
//
// feinstaubalarm can be used as a library (SDK) or as a standalone binary
// driven by a JSON configuration file. This CLI provides the standalone binary.
//
// Usage:
//
//	feinstaubalarm run -c config.json      # Check sensors once, tweet on alarm
//	feinstaubalarm watch -c config.json    # Check on an interval, serve status
//	feinstaubalarm validate -c config.json # Validate configuration
//	feinstaubalarm version                 # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alpensichtung/feinstaubalarm/config"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "feinstaubalarm",
	Short: "Tweet when PM10 levels exceed a threshold",
	Long: `feinstaubalarm checks luftdaten.info particulate matter sensors and
tweets a warning when the highest PM10 reading exceeds a threshold.

Quick start:
  1. Create a config file (config.json)
  2. Run: feinstaubalarm run
  3. Schedule it (cron) or use: feinstaubalarm watch

Example config:
  {
    "sensors": [1337, 2048],
    "max_value": 50,
    "tokens": {
      "consumer_key": "${TWITTER_CONSUMER_KEY}",
      "consumer_secret": "${TWITTER_CONSUMER_SECRET}",
      "access_key": "${TWITTER_ACCESS_KEY}",
      "access_secret": "${TWITTER_ACCESS_SECRET}"
    }
  }`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this feinstaubalarm binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feinstaubalarm %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug messages")
}

// addConfigFlag registers the -c/--config flag on cmd.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", config.DefaultPath, "path to config file")
}

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
