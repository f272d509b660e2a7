package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alpensichtung/feinstaubalarm/config"
)

// validateCmd validates a config file without contacting any sensor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a feinstaubalarm configuration file without running a check.

This command parses the file, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  feinstaubalarm validate
  feinstaubalarm validate --config /etc/feinstaubalarm/config.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addConfigFlag(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	publishers, err := config.BuildPublishers(cfg, nil, false)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	sinks := make([]string, 0, len(publishers))
	for _, p := range publishers {
		sinks = append(sinks, p.Name())
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
	}

	sensors := make([]string, 0, len(cfg.Sensors))
	for _, id := range cfg.Sensors {
		sensors = append(sensors, string(id))
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Sensors:   %s\n", strings.Join(sensors, ", "))
	fmt.Printf("  Max value: %s µg/m³\n", cfg.MaxValue.Value)
	fmt.Printf("  City:      %s\n", cfg.City)
	fmt.Printf("  Sinks:     %s\n", strings.Join(sinks, ", "))
	fmt.Printf("  Interval:  %s (watch)\n", cfg.Interval.Duration())

	return nil
}
