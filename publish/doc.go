// Package publish provides the alert sinks of feinstaubalarm.
//
// Every type in this package implements feinstaubalarm.Publisher:
//
//   - [Twitter]: posts the alert text as a tweet (OAuth1 user context)
//   - [Kafka]: writes the alert as a JSON event to a Kafka topic
//   - [MQTT]: publishes the alert as a JSON event to an MQTT topic
//   - [Log]: logs the alert instead of publishing it (dry runs)
//
// Sinks do not retry. A failed delivery is returned to the monitor, which
// fails the run.
package publish
