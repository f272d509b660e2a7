package feinstaubalarm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Monitor runs the feinstaub alarm pipeline.
//
// One call to [Monitor.Run] fetches every configured sensor in order,
// extracts its PM10 value, picks the highest reading and publishes an alert
// when it exceeds the threshold. Monitor holds no state between runs except
// the last published text when [WithSuppressRepeats] is set.
//
// The typical lifecycle is:
//
//	m, err := feinstaubalarm.New(
//	    feinstaubalarm.WithSensors("1337", "2048"),
//	    feinstaubalarm.WithThreshold(decimal.NewFromInt(50)),
//	    feinstaubalarm.WithPublisher(pub),
//	)
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//	defer m.Close()
//
//	decision, err := m.Run(ctx)
type Monitor struct {
	sensors           []SensorID
	threshold         decimal.Decimal
	fetcher           *Fetcher
	message           AlertMessage
	publishers        []Publisher
	logger            *slog.Logger
	readingCallbacks  []func(Reading)
	decisionCallbacks []func(Decision)
	suppressRepeats   bool
	now               func() time.Time

	mu            sync.Mutex
	lastPublished string
}

// New creates a new [Monitor] with the given options.
//
// At least one sensor ([WithSensors]), a threshold ([WithThreshold]) and one
// publisher ([WithPublisher]) are required. Other options have defaults:
//   - Sensor URL: [DefaultSensorURL]
//   - Request timeout: 10 seconds
//   - Alert text: [DefaultMessage] for [DefaultCity]
//
// Returns an error if a required option is missing or any option is invalid.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		sensorURL: DefaultSensorURL,
		timeout:   defaultFetchTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.sensors) == 0 {
		return nil, errors.New("at least one sensor is required")
	}

	// duplicates would be fetched twice and could change which sensor is reported
	seen := make(map[SensorID]bool, len(cfg.sensors))
	for _, id := range cfg.sensors {
		if seen[id] {
			return nil, fmt.Errorf("duplicate sensor id: %q", id)
		}
		seen[id] = true
	}

	if !cfg.thresholdSet {
		return nil, errors.New("threshold is required")
	}
	if len(cfg.publishers) == 0 {
		return nil, errors.New("at least one publisher is required")
	}

	sensorURL, err := NewSensorURL(cfg.sensorURL)
	if err != nil {
		return nil, err
	}

	message, err := NewAlertMessage(cfg.city, cfg.message)
	if err != nil {
		return nil, err
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		sensors:           cfg.sensors,
		threshold:         cfg.threshold,
		fetcher:           NewFetcher(sensorURL, cfg.timeout, logger),
		message:           message,
		publishers:        cfg.publishers,
		logger:            logger,
		readingCallbacks:  cfg.readingCallbacks,
		decisionCallbacks: cfg.decisionCallbacks,
		suppressRepeats:   cfg.suppressRepeats,
		now:               time.Now,
	}, nil
}

// Run executes one pass of the pipeline and returns the decision taken.
//
// Sensor failures never fail the run: they yield unavailable readings. Run
// returns an error only when the context is cancelled before evaluation, when
// the alert cannot be rendered, or when any publisher fails. In the last case
// the decision is still returned.
func (m *Monitor) Run(ctx context.Context) (Decision, error) {
	readings := m.Collect(ctx)

	// a cancelled run has incomplete readings; do not act on them
	if err := ctx.Err(); err != nil {
		return Decision{Threshold: m.threshold}, err
	}

	decision := Evaluate(readings, m.threshold)
	for _, cb := range m.decisionCallbacks {
		invokeCallbackSafe(cb, decision, m.logger)
	}

	if !decision.Alarm {
		m.logger.Info("pm10 below threshold",
			"sensor", decision.Sensor.String(),
			"value", FormatValue(decision.Value),
			"threshold", FormatValue(m.threshold),
		)
		m.setLastPublished("")
		return decision, nil
	}

	text, err := m.message.Render(decision)
	if err != nil {
		return decision, fmt.Errorf("failed to render alert: %w", err)
	}

	if m.suppressRepeats && m.getLastPublished() == text {
		m.logger.Info("alert unchanged since last publish, skipping",
			"sensor", decision.Sensor.String(),
			"value", FormatValue(decision.Value),
		)
		return decision, nil
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Text:      text,
		Sensor:    decision.Sensor,
		Value:     decision.Value,
		Threshold: decision.Threshold,
		RaisedAt:  m.now().UTC(),
	}

	m.logger.Warn("pm10 above threshold",
		"alert_id", alert.ID,
		"sensor", alert.Sensor.String(),
		"value", FormatValue(alert.Value),
		"threshold", FormatValue(alert.Threshold),
	)

	if err := m.publish(ctx, alert); err != nil {
		return decision, err
	}

	m.setLastPublished(text)
	return decision, nil
}

// Collect fetches and extracts the reading of every configured sensor.
//
// Sensors are queried sequentially in configured order and the returned
// slice has exactly one reading per sensor, in that order.
func (m *Monitor) Collect(ctx context.Context) []Reading {
	readings := make([]Reading, 0, len(m.sensors))

	for _, id := range m.sensors {
		value, ok := ExtractPM10(m.fetcher.Fetch(ctx, id))
		reading := Reading{Sensor: id, Value: value, Available: ok}
		if !ok {
			m.logger.Warn("no pm10 value available", "sensor", id.String())
		} else {
			m.logger.Debug("pm10 reading", "sensor", id.String(), "value", FormatValue(value))
		}

		readings = append(readings, reading)

		// invoke reading callbacks in order
		for _, cb := range m.readingCallbacks {
			invokeCallbackSafe(cb, reading, m.logger)
		}
	}

	return readings
}

// publish hands the alert to every publisher. All publishers are attempted;
// their failures are joined into the returned error.
func (m *Monitor) publish(ctx context.Context, alert Alert) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, alert); err != nil {
			m.logger.Error("publish failed",
				"publisher", p.Name(),
				"alert_id", alert.ID,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		m.logger.Info("alert published", "publisher", p.Name(), "alert_id", alert.ID)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// Sensors returns a copy of the configured sensor ids in order.
func (m *Monitor) Sensors() []SensorID {
	cp := make([]SensorID, len(m.sensors))
	copy(cp, m.sensors)
	return cp
}

// Threshold returns the configured PM10 threshold.
func (m *Monitor) Threshold() decimal.Decimal {
	return m.threshold
}

// Close releases idle HTTP connections and closes publishers that hold
// connections of their own (those implementing io.Closer).
func (m *Monitor) Close() {
	m.fetcher.Close()
	for _, p := range m.publishers {
		closer, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			m.logger.Warn("failed to close publisher", "publisher", p.Name(), "error", err.Error())
		}
	}
}

func (m *Monitor) getLastPublished() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPublished
}

func (m *Monitor) setLastPublished(text string) {
	m.mu.Lock()
	m.lastPublished = text
	m.mu.Unlock()
}

// invokeCallbackSafe calls a callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe[T any](cb func(T), value T, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	cb(value)
}
