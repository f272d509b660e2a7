package store

import "time"

// SensorReading is the latest known PM10 value of one sensor.
//
// SensorReading is the storage representation of a reading, optimized for
// JSON serialization (used by the REST API and SSE). Values are decimal
// strings so no precision is lost on the wire.
type SensorReading struct {
	// Sensor is the configured sensor id.
	Sensor string `json:"sensor"`

	// Value is the PM10 value in µg/m³, nil when the sensor gave no value.
	Value *string `json:"value"`

	// Available reports whether the last fetch produced a value.
	Available bool `json:"available"`

	// CheckedAt is when the sensor was last fetched.
	CheckedAt time.Time `json:"checked_at"`
}

// DecisionRecord is the outcome of the most recent evaluation.
type DecisionRecord struct {
	// Alarm is true when the highest value exceeded the threshold.
	Alarm bool `json:"alarm"`

	// Sensor holds the highest value. Empty when nothing was evaluated.
	Sensor string `json:"sensor"`

	// Value is the highest PM10 value.
	Value string `json:"value"`

	// Threshold is the configured limit.
	Threshold string `json:"threshold"`

	// DecidedAt is when the evaluation happened.
	DecidedAt time.Time `json:"decided_at"`
}

// Event is a single update pushed to subscribers. Exactly one of Reading
// and Decision is set, matching Type.
type Event struct {
	// Type is EventReading or EventDecision.
	Type string `json:"type"`

	Reading  *SensorReading  `json:"reading,omitempty"`
	Decision *DecisionRecord `json:"decision,omitempty"`
}

// Event types.
const (
	EventReading  = "reading"
	EventDecision = "decision"
)

// Store defines the interface for storing and subscribing to monitor state.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// UpdateReading stores a reading and notifies all subscribers.
	// Readings are keyed by Sensor, so later updates replace earlier ones.
	UpdateReading(reading SensorReading)

	// SetDecision stores the latest decision and notifies all subscribers.
	SetDecision(decision DecisionRecord)

	// Readings returns the latest reading of every sensor seen so far,
	// in the order sensors were first seen.
	Readings() []SensorReading

	// Decision returns the latest decision, or false if there is none yet.
	Decision() (DecisionRecord, bool)

	// Subscribe returns a channel that receives updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
