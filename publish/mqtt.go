package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/alpensichtung/feinstaubalarm"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 10 * time.Second
	mqttQuiesceMillis  = 250
)

// mqttClient is the subset of mqtt.Client used by [MQTT].
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig describes the broker connection of an [MQTT] publisher.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// Topic receives the alert events.
	Topic string

	// ClientID identifies this client to the broker.
	ClientID string

	// QoS is the MQTT quality of service level (0, 1 or 2).
	QoS byte

	// Username and Password are optional broker credentials.
	Username string
	Password string
}

// MQTT publishes alerts as JSON events to an MQTT topic.
//
// The broker connection is established on the first alert, so runs that end
// without alarm never connect.
type MQTT struct {
	cfg     MQTTConfig
	connect func() (mqttClient, error)

	mu     sync.Mutex
	client mqttClient
}

// NewMQTT creates an [MQTT] publisher. Returns an error if broker or topic
// is missing or QoS is above 2.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt: topic is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "feinstaubalarm"
	}

	m := &MQTT{cfg: cfg}
	m.connect = m.dial
	return m, nil
}

// dial connects to the configured broker.
func (m *MQTT) dial() (mqttClient, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(false)
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
		opts.SetPassword(m.cfg.Password)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to %s timed out", m.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", m.cfg.Broker, err)
	}
	return c, nil
}

// Name returns "mqtt".
func (m *MQTT) Name() string {
	return "mqtt"
}

// Publish sends the alert and waits for the broker to acknowledge it
// according to the configured QoS.
func (m *MQTT) Publish(ctx context.Context, alert feinstaubalarm.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	client, err := m.ensureClient()
	if err != nil {
		return err
	}

	token := client.Publish(m.cfg.Topic, m.cfg.QoS, false, payload)

	timer := time.NewTimer(mqttPublishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to %q: %w", m.cfg.Topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %q timed out", m.cfg.Topic)
	}
}

// ensureClient returns the connected client, connecting on first use.
func (m *MQTT) ensureClient() (mqttClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	client, err := m.connect()
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

// Close disconnects from the broker if a connection was made.
func (m *MQTT) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Disconnect(mqttQuiesceMillis)
		m.client = nil
	}
	return nil
}
