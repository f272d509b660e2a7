package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alpensichtung/feinstaubalarm"
	"github.com/alpensichtung/feinstaubalarm/config"
)

// runCmd checks all sensors once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check all sensors once and publish an alert if needed",
	Long: `Check every configured sensor once.

The command will:
  - Load configuration (config.json in the working directory by default)
  - Fetch the latest PM10 value of each sensor
  - Publish an alert when the highest value exceeds max_value

Sensors that cannot be reached are logged and skipped. A failed publish
exits with code 1.

Example:
  feinstaubalarm run
  feinstaubalarm run -c /etc/feinstaubalarm/config.json --dry-run`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addConfigFlag(runCmd)
	runCmd.Flags().Bool("dry-run", false, "log the alert instead of publishing it")
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("config loaded",
		"sensors", len(cfg.Sensors),
		"max_value", cfg.MaxValue.Value.String(),
	)

	opts, err := config.BuildOptions(cfg, logger, dryRun)
	if err != nil {
		return fmt.Errorf("failed to build monitor: %w", err)
	}

	monitor, err := feinstaubalarm.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer monitor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := monitor.Run(ctx); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
