package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alpensichtung/feinstaubalarm"
	"github.com/alpensichtung/feinstaubalarm/config"
	"github.com/alpensichtung/feinstaubalarm/internal/metrics"
	"github.com/alpensichtung/feinstaubalarm/internal/poller"
	"github.com/alpensichtung/feinstaubalarm/internal/server"
	"github.com/alpensichtung/feinstaubalarm/internal/store"
)

// watchCmd checks sensors on an interval and serves their state.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check sensors on an interval and serve status over HTTP",
	Long: `Check all sensors immediately and then once per interval.

The command will:
  - Load configuration (config.json in the working directory by default)
  - Run a check every interval (default 5m); checks never overlap
  - Publish an alert once per distinct alert text
  - Serve the latest readings on the configured port:
      GET /api/readings   latest value per sensor
      GET /api/decision   last threshold decision
      GET /api/sse        live updates (Server-Sent Events)
      GET /metrics        Prometheus metrics
      GET /healthz        liveness

A failed publish stops the command with exit code 1. It otherwise runs until
interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  feinstaubalarm watch -c config.json`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addConfigFlag(watchCmd)
	watchCmd.Flags().Bool("dry-run", false, "log alerts instead of publishing them")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := config.BuildOptions(cfg, logger, dryRun)
	if err != nil {
		return fmt.Errorf("failed to build monitor: %w", err)
	}

	m := metrics.New()
	st := store.NewMemoryStore()
	opts = append(opts, watchOptions(st, m)...)

	monitor, err := feinstaubalarm.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer monitor.Close()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	srv := server.NewServer(st, m, cfg.Port, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("watching sensors",
		"sensors", len(cfg.Sensors),
		"interval", cfg.Interval.Duration().String(),
		"port", cfg.Port,
	)

	scheduler := poller.NewScheduler(func(ctx context.Context) error {
		_, err := monitor.Run(ctx)
		return err
	}, cfg.Interval.Duration(), logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if err := consumeResults(ctx, scheduler.Results(), m, logger); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// consumeResults records every cycle until the results channel closes.
// The first failed cycle ends watching; cancellation is not a failure.
func consumeResults(ctx context.Context, results <-chan poller.CycleResult, m *metrics.Metrics, logger *slog.Logger) error {
	for result := range results {
		if result.Err != nil && (ctx.Err() != nil || errors.Is(result.Err, context.Canceled)) {
			return nil
		}

		m.ObserveCycle(result.Duration, result.Err)
		if result.Err != nil {
			logger.Error("cycle failed",
				"cycle", result.Cycle,
				"error", result.Err.Error(),
			)
			return fmt.Errorf("cycle %d failed: %w", result.Cycle, result.Err)
		}

		logger.Debug("cycle complete",
			"cycle", result.Cycle,
			"duration", result.Duration.String(),
		)
	}
	return nil
}

// watchOptions feeds every reading and decision into the store and metrics,
// and publishes a repeated alert text only once.
func watchOptions(st store.Store, m *metrics.Metrics) []feinstaubalarm.Option {
	return []feinstaubalarm.Option{
		feinstaubalarm.WithSuppressRepeats(true),
		feinstaubalarm.WithReadingCallback(func(r feinstaubalarm.Reading) {
			st.UpdateReading(toSensorReading(r, time.Now()))
			m.ObserveReading(r.Sensor.String(), r.Value.InexactFloat64(), r.Available)
		}),
		feinstaubalarm.WithDecisionCallback(func(d feinstaubalarm.Decision) {
			st.SetDecision(toDecisionRecord(d, time.Now()))
			m.ObserveDecision(d.Alarm, d.Threshold.InexactFloat64())
		}),
	}
}

// toSensorReading converts a monitor reading to its storage form.
func toSensorReading(r feinstaubalarm.Reading, at time.Time) store.SensorReading {
	reading := store.SensorReading{
		Sensor:    r.Sensor.String(),
		Available: r.Available,
		CheckedAt: at,
	}
	if r.Available {
		v := feinstaubalarm.FormatValue(r.Value)
		reading.Value = &v
	}
	return reading
}

// toDecisionRecord converts a monitor decision to its storage form.
func toDecisionRecord(d feinstaubalarm.Decision, at time.Time) store.DecisionRecord {
	return store.DecisionRecord{
		Alarm:     d.Alarm,
		Sensor:    d.Sensor.String(),
		Value:     feinstaubalarm.FormatValue(d.Value),
		Threshold: feinstaubalarm.FormatValue(d.Threshold),
		DecidedAt: at,
	}
}
