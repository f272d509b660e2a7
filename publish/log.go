package publish

import (
	"context"
	"log/slog"

	"github.com/alpensichtung/feinstaubalarm"
)

// Log writes alerts to a logger instead of publishing them.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a [Log] publisher. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Name returns "log".
func (l *Log) Name() string {
	return "log"
}

// Publish logs the alert at info level. It never fails.
func (l *Log) Publish(_ context.Context, alert feinstaubalarm.Alert) error {
	l.logger.Info("dry run, alert not published",
		"alert_id", alert.ID,
		"sensor", alert.Sensor.String(),
		"value", alert.Value.String(),
		"text", alert.Text,
	)
	return nil
}
