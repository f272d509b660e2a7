package feinstaubalarm

import (
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	sensors           []SensorID
	threshold         decimal.Decimal
	thresholdSet      bool
	sensorURL         string
	timeout           time.Duration
	city              string
	message           string
	publishers        []Publisher
	logger            *slog.Logger
	readingCallbacks  []func(Reading)
	decisionCallbacks []func(Decision)
	suppressRepeats   bool
}

// Option is a function that configures a [Monitor] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*monitorConfig) error

// WithSensors adds sensors to evaluate, in order.
//
// Can be called multiple times; ids are appended. Order matters: on equal
// readings the sensor listed first is reported.
//
// Returns an error if any id is empty.
func WithSensors(ids ...SensorID) Option {
	return func(cfg *monitorConfig) error {
		for _, id := range ids {
			if id == "" {
				return errors.New("sensor id cannot be empty")
			}
		}
		cfg.sensors = append(cfg.sensors, ids...)
		return nil
	}
}

// WithThreshold sets the PM10 limit in µg/m³. An alert is raised when the
// highest reading is strictly greater than this value.
func WithThreshold(threshold decimal.Decimal) Option {
	return func(cfg *monitorConfig) error {
		cfg.threshold = threshold
		cfg.thresholdSet = true
		return nil
	}
}

// WithSensorURL overrides the sensor API URL template.
// The template must contain {id}. Defaults to [DefaultSensorURL].
func WithSensorURL(template string) Option {
	return func(cfg *monitorConfig) error {
		if _, err := NewSensorURL(template); err != nil {
			return err
		}
		cfg.sensorURL = template
		return nil
	}
}

// WithTimeout sets the per-request timeout for sensor API calls.
//
// A hung sensor API would otherwise block the run indefinitely.
// Defaults to 10 seconds. Returns an error if the duration is not positive.
func WithTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithAlertMessage sets the city and text template of the alert.
// Empty values keep [DefaultCity] and [DefaultMessage].
func WithAlertMessage(city, text string) Option {
	return func(cfg *monitorConfig) error {
		if _, err := NewAlertMessage(city, text); err != nil {
			return err
		}
		cfg.city = city
		cfg.message = text
		return nil
	}
}

// WithPublisher adds a [Publisher] that receives every alert.
//
// Publishers are called in registration order. Returns an error if p is nil.
func WithPublisher(p Publisher) Option {
	return func(cfg *monitorConfig) error {
		if p == nil {
			return errors.New("publisher cannot be nil")
		}
		cfg.publishers = append(cfg.publishers, p)
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used. Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithReadingCallback registers a function called for every sensor reading,
// including unavailable ones, right after extraction.
//
// Callbacks are invoked synchronously in registration order and must not
// block. Panics are recovered and logged. Nil callbacks are ignored.
func WithReadingCallback(cb func(Reading)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.readingCallbacks = append(cfg.readingCallbacks, cb)
		return nil
	}
}

// WithDecisionCallback registers a function called with every decision,
// before any alert is published. Same rules as [WithReadingCallback].
func WithDecisionCallback(cb func(Decision)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.decisionCallbacks = append(cfg.decisionCallbacks, cb)
		return nil
	}
}

// WithSuppressRepeats skips publishing when the alert text equals the text
// published by the previous run of the same Monitor. The memory is cleared
// by any run that ends without alarm.
//
// Intended for long-running watch mode, where the same alarm would otherwise
// be posted on every cycle.
func WithSuppressRepeats(enabled bool) Option {
	return func(cfg *monitorConfig) error {
		cfg.suppressRepeats = enabled
		return nil
	}
}
