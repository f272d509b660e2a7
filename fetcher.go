package feinstaubalarm

import (
	"context"
	"log/slog"
	"time"

	"github.com/alpensichtung/feinstaubalarm/internal/poller"
)

const (
	defaultFetchTimeout = 10 * time.Second
	userAgent           = "feinstaubalarm (+https://github.com/alpensichtung/feinstaubalarm)"
)

// Fetcher queries the sensor API, one GET per sensor.
//
// Fetcher never returns an error. A transport failure or a status outside
// [200,300) is logged and reported as a nil *Response, the same "no data"
// sentinel [ExtractPM10] understands.
type Fetcher struct {
	client  *poller.Client
	url     SensorURL
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher creates a [Fetcher] for the given URL template.
// A non-positive timeout falls back to 10 seconds; a nil logger to slog.Default().
func NewFetcher(u SensorURL, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  poller.NewClient(userAgent),
		url:     u,
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch requests the latest measurements for one sensor.
func (f *Fetcher) Fetch(ctx context.Context, id SensorID) *Response {
	target := f.url.For(id)
	resp := f.client.Get(ctx, target, f.timeout)

	if resp.Error != nil {
		f.logger.Warn("sensor request failed",
			"sensor", id.String(),
			"url", target,
			"latency_ms", resp.Latency.Milliseconds(),
			"error", resp.Error.Error(),
		)
		return nil
	}
	if !successful(resp.StatusCode) {
		f.logger.Warn("sensor API error response",
			"sensor", id.String(),
			"url", target,
			"status_code", resp.StatusCode,
		)
		return nil
	}

	f.logger.Debug("sensor fetched",
		"sensor", id.String(),
		"status_code", resp.StatusCode,
		"latency_ms", resp.Latency.Milliseconds(),
	)
	return &Response{StatusCode: resp.StatusCode, Body: resp.Body}
}

// Close releases idle connections held by the fetcher.
func (f *Fetcher) Close() {
	f.client.Close()
}

// successful reports whether statusCode is in [200,300).
func successful(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
