// Package feinstaubalarm raises a public alarm when particulate matter
// (PM10) measured by luftdaten.info sensors exceeds a limit.
//
// A run fetches the latest snapshot of every configured sensor, takes the
// first measurement of the newest snapshot as its PM10 value, picks the
// highest value across sensors and, when it is strictly above the threshold,
// hands an [Alert] to every configured [Publisher].
//
// # Quick Start
//
//	pub := publish.NewLog(slog.Default())
//	m, _ := feinstaubalarm.New(
//	    feinstaubalarm.WithSensors("1337", "2048"),
//	    feinstaubalarm.WithThreshold(decimal.NewFromInt(50)),
//	    feinstaubalarm.WithPublisher(pub),
//	)
//	defer m.Close()
//
//	decision, err := m.Run(ctx)
//
// # Configuration
//
// Monitors use the functional options pattern:
//
//	m, err := feinstaubalarm.New(
//	    feinstaubalarm.WithSensors("1337"),
//	    feinstaubalarm.WithThreshold(decimal.RequireFromString("50")),
//	    feinstaubalarm.WithSensorURL("https://data.sensor.community/airrohr/v1/sensor/{id}/"),
//	    feinstaubalarm.WithTimeout(5 * time.Second),
//	    feinstaubalarm.WithAlertMessage("Lörrach", ""),
//	    feinstaubalarm.WithPublisher(twitter),
//	)
//
// # Failure handling
//
// A sensor that cannot be reached, answers with a non-2xx status or returns
// a body without a usable value yields an unavailable [Reading]. Unavailable
// readings count as zero and never fail the run. Publishing failures do.
//
// # Architecture
//
//   - internal/poller: HTTP client and the interval scheduler of watch mode
//   - internal/store: latest readings and decision, with pub/sub
//   - internal/server: JSON API, Server-Sent Events and health endpoint
//   - internal/metrics: Prometheus collectors
//   - publish: Twitter, Kafka, MQTT and log sinks
//   - config: JSON/YAML configuration file loading
//
// The internal packages are not part of the public API and may change
// without notice.
package feinstaubalarm
