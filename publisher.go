package feinstaubalarm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Alert is a threshold violation ready to be published.
type Alert struct {
	// ID uniquely identifies this alert across sinks.
	ID string `json:"id"`

	// Text is the rendered alert message.
	Text string `json:"text"`

	// Sensor is the sensor holding the highest reading.
	Sensor SensorID `json:"sensor"`

	// Value is the PM10 reading that exceeded the threshold.
	Value decimal.Decimal `json:"value"`

	// Threshold is the configured limit.
	Threshold decimal.Decimal `json:"threshold"`

	// RaisedAt is when the alert was raised.
	RaisedAt time.Time `json:"raised_at"`
}

// Publisher delivers an [Alert] to an outside audience.
//
// Implementations live in the publish package: Twitter, Kafka, MQTT and a
// log-only sink for dry runs. Publish must return an error when the alert
// could not be delivered; the monitor does not retry.
type Publisher interface {
	// Name identifies the publisher in logs and errors.
	Name() string

	// Publish delivers the alert.
	Publish(ctx context.Context, alert Alert) error
}
