// Standalone mock luftdaten.info server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/feinstaubalarm watch -c example/config.json
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

func main() {
	fmt.Println("Mock luftdaten.info server starting on :9999")
	fmt.Println("Sensor values drift on every request; try GET /static/v1/sensor/1337/")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		values = make(map[string]float64)
		mu     sync.Mutex
	)

	r := chi.NewRouter()
	r.Get("/static/v1/sensor/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			http.NotFound(w, r)
			return
		}

		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		pm10, exists := values[id]
		if !exists {
			pm10 = 30
		}
		previous := pm10
		pm10 = max(0, pm10+(rand.Float64()*2-1)*12)
		values[id] = pm10
		mu.Unlock()

		if previous <= 50 && pm10 > 50 {
			slog.Info("threshold crossed", "sensor", id, "pm10", pm10)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"sensordatavalues": []map[string]string{
				{"value_type": "P1", "value": strconv.FormatFloat(previous, 'f', 2, 64)},
				{"value_type": "P2", "value": strconv.FormatFloat(previous/2, 'f', 2, 64)},
			}},
			{"sensordatavalues": []map[string]string{
				{"value_type": "P1", "value": strconv.FormatFloat(pm10, 'f', 2, 64)},
				{"value_type": "P2", "value": strconv.FormatFloat(pm10/2, 'f', 2, 64)},
			}},
		})
	})

	if err := http.ListenAndServe(":9999", r); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
