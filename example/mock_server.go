package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// mockSensor tracks the drifting PM10 and PM2.5 values of one sensor.
type mockSensor struct {
	pm10 float64
	pm25 float64
}

// snapshot mirrors one entry of the luftdaten.info sensor response.
type snapshot struct {
	ID               int64       `json:"id"`
	Timestamp        string      `json:"timestamp"`
	SensorDataValues []dataValue `json:"sensordatavalues"`
	Sensor           struct {
		ID int64 `json:"id"`
	} `json:"sensor"`
}

type dataValue struct {
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
}

// StartMockSensorServer runs a mock luftdaten.info API on addr.
// Every request moves the sensor's values by a random step, so PM10 crosses
// a threshold of 50 now and then. Unknown sensors start at 30 µg/m³.
// Call this in a goroutine before creating the monitor.
func StartMockSensorServer(addr string) {
	var (
		sensors = make(map[string]*mockSensor)
		mu      sync.Mutex
	)

	r := chi.NewRouter()
	r.Get("/static/v1/sensor/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		numericID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		s, exists := sensors[id]
		if !exists {
			s = &mockSensor{pm10: 30, pm25: 15}
			sensors[id] = s
		}
		older := *s
		s.pm10 = drift(s.pm10, 12)
		s.pm25 = drift(s.pm25, 6)
		latest := *s
		mu.Unlock()

		now := time.Now().UTC()
		body := []snapshot{
			newSnapshot(numericID, now.Add(-150*time.Second), older),
			newSnapshot(numericID, now, latest),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func newSnapshot(sensorID int64, at time.Time, s mockSensor) snapshot {
	snap := snapshot{
		ID:        at.UnixNano(),
		Timestamp: at.Format("2006-01-02 15:04:05"),
		// P1 (PM10) first, as the real API lists it
		SensorDataValues: []dataValue{
			{ValueType: "P1", Value: strconv.FormatFloat(s.pm10, 'f', 2, 64)},
			{ValueType: "P2", Value: strconv.FormatFloat(s.pm25, 'f', 2, 64)},
		},
	}
	snap.Sensor.ID = sensorID
	return snap
}

// drift moves v by up to ±step and keeps it non-negative.
func drift(v, step float64) float64 {
	v += (rand.Float64()*2 - 1) * step
	if v < 0 {
		return 0
	}
	return v
}
