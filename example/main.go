package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alpensichtung/feinstaubalarm"
	"github.com/alpensichtung/feinstaubalarm/publish"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockSensorServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	monitor, err := feinstaubalarm.New(
		feinstaubalarm.WithSensors("1337", "2048", "4711"),
		feinstaubalarm.WithThreshold(decimal.NewFromInt(50)),
		feinstaubalarm.WithSensorURL("http://localhost:9999/static/v1/sensor/{id}/"),
		feinstaubalarm.WithAlertMessage("Freiburg", ""),
		// the log sink prints alerts instead of tweeting them
		feinstaubalarm.WithPublisher(publish.NewLog(logger)),
		feinstaubalarm.WithLogger(logger),
		feinstaubalarm.WithSuppressRepeats(true),
		feinstaubalarm.WithReadingCallback(func(r feinstaubalarm.Reading) {
			fmt.Printf("  sensor %-5s PM10 %s µg/m³\n", r.Sensor, r.Value)
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}
	defer monitor.Close()

	fmt.Println()
	fmt.Println("  feinstaubalarm demo")
	fmt.Println("  3 mock sensors, threshold 50 µg/m³, checked every 10s")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		decision, err := monitor.Run(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Error("run failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("  highest: sensor %s at %s (alarm: %t)\n\n", decision.Sensor, decision.Value, decision.Alarm)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
