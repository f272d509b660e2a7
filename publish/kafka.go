package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/alpensichtung/feinstaubalarm"
)

// messageWriter is the subset of *kafka.Writer used by [Kafka].
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes alerts as JSON events to a Kafka topic, keyed by sensor id.
type Kafka struct {
	writer messageWriter
	topic  string
}

// NewKafka creates a [Kafka] publisher. The writer connects lazily on the
// first alert. Returns an error if no broker or topic is given.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		topic: topic,
	}, nil
}

// Name returns "kafka".
func (k *Kafka) Name() string {
	return "kafka"
}

// Publish writes the alert synchronously and waits for the leader's ack.
func (k *Kafka) Publish(ctx context.Context, alert feinstaubalarm.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.Sensor),
		Value: payload,
		Time:  alert.RaisedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to topic %q: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
