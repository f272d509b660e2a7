package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newSensorServer serves the same PM10 value for every sensor.
func newSensorServer(t *testing.T, value string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"sensordatavalues": [{"value_type": "P1", "value": "`+value+`"}]}]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTwitterServer answers every tweet with status and counts the calls.
func newTwitterServer(t *testing.T, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"detail":"test"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runConfig(sensorURL, twitterURL string) string {
	return `{
  "sensors": [1337, 2048],
  "max_value": 50,
  "sensor_url": "` + sensorURL + `/sensor/{id}/",
  "twitter_url": "` + twitterURL + `/2/tweets",
  "tokens": {"consumer_key": "ck", "consumer_secret": "cs", "access_key": "ak", "access_secret": "as"}
}`
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		status    int
		dryRun    bool
		wantCalls int32
		wantErr   string
	}{
		{"below threshold", "12.5", http.StatusCreated, false, 0, ""},
		{"alarm tweeted", "75.3", http.StatusCreated, false, 1, ""},
		{"alarm with failing twitter", "75.3", http.StatusUnauthorized, false, 1, "status 401"},
		{"dry run", "75.3", http.StatusUnauthorized, true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			sensors := newSensorServer(t, tt.value)
			twitter := newTwitterServer(t, tt.status, &calls)
			configPath := writeConfig(t, runConfig(sensors.URL, twitter.URL))

			args := []string{"run", "-c", configPath}
			if tt.dryRun {
				args = append(args, "--dry-run")
			} else {
				args = append(args, "--dry-run=false")
			}
			_, err := executeCmd(t, args...)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("run error = %v, want error containing %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("run error = %v", err)
			}

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("tweets = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRunOnce_UnreachableSensorsAreNotAnError(t *testing.T) {
	var calls atomic.Int32
	twitter := newTwitterServer(t, http.StatusCreated, &calls)
	configPath := writeConfig(t, runConfig("http://127.0.0.1:1", twitter.URL))

	if _, err := executeCmd(t, "run", "-c", configPath, "--dry-run=false"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("tweets = %d, want 0", calls.Load())
	}
}

func TestRunOnce_MissingConfig(t *testing.T) {
	_, err := executeCmd(t, "run", "-c", "/nonexistent/config.json")
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("run error = %v, want 'failed to load config'", err)
	}
}
