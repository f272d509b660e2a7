// Package metrics exposes the watch-mode state of feinstaubalarm to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feinstaubalarm"

// Metrics holds the collectors of one monitor. All methods are safe on a nil
// receiver, which disables recording.
type Metrics struct {
	registry *prometheus.Registry

	pm10         *prometheus.GaugeVec
	unavailable  *prometheus.CounterVec
	threshold    prometheus.Gauge
	alarm        prometheus.Gauge
	alarms       prometheus.Counter
	cycles       *prometheus.CounterVec
	cycleSeconds prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pm10: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pm10_micrograms_per_cubic_meter",
			Help:      "Latest PM10 value per sensor.",
		}, []string{"sensor"}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_unavailable_total",
			Help:      "Fetches that produced no PM10 value, per sensor.",
		}, []string{"sensor"}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold_micrograms_per_cubic_meter",
			Help:      "Configured PM10 threshold.",
		}),
		alarm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm",
			Help:      "1 while the latest decision is an alarm, else 0.",
		}),
		alarms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_total",
			Help:      "Decisions that raised an alarm.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Scheduled runs by result.",
		}, []string{"result"}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of scheduled runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.pm10,
		m.unavailable,
		m.threshold,
		m.alarm,
		m.alarms,
		m.cycles,
		m.cycleSeconds,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReading records a sensor reading. Unavailable readings keep the
// last known value and count as unavailable.
func (m *Metrics) ObserveReading(sensor string, value float64, available bool) {
	if m == nil {
		return
	}
	if !available {
		m.unavailable.WithLabelValues(sensor).Inc()
		return
	}
	m.pm10.WithLabelValues(sensor).Set(value)
}

// ObserveDecision records the outcome of an evaluation.
func (m *Metrics) ObserveDecision(alarm bool, threshold float64) {
	if m == nil {
		return
	}
	m.threshold.Set(threshold)
	if alarm {
		m.alarm.Set(1)
		m.alarms.Inc()
		return
	}
	m.alarm.Set(0)
}

// ObserveCycle records a scheduled run and whether it failed.
func (m *Metrics) ObserveCycle(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.cycleSeconds.Observe(duration.Seconds())
	if err != nil {
		m.cycles.WithLabelValues("error").Inc()
		return
	}
	m.cycles.WithLabelValues("ok").Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the wrapped writer so SSE keeps streaming.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// WrapHandler counts requests to route by status code.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
	})
}
