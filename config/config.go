// Package config loads the feinstaubalarm configuration file.
//
// The file is usually JSON (config.json). It is parsed as YAML, so YAML
// files work as well.
//
// Example configuration:
//
//	{
//	  "sensors": [1337, 2048],
//	  "max_value": 50,
//	  "tokens": {
//	    "consumer_key": "${TWITTER_CONSUMER_KEY}",
//	    "consumer_secret": "${TWITTER_CONSUMER_SECRET}",
//	    "access_key": "${TWITTER_ACCESS_KEY}",
//	    "access_secret": "${TWITTER_ACCESS_SECRET}"
//	  },
//	  "city": "Freiburg",
//	  "interval": "5m"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alpensichtung/feinstaubalarm"
)

const (
	// DefaultPath is the configuration file read when no path is given.
	DefaultPath = "config.json"

	defaultTimeout  = 10 * time.Second
	defaultInterval = 5 * time.Minute
	defaultPort     = 8080

	minTimeout  = 1 * time.Second
	minInterval = 1 * time.Second
	maxInterval = 24 * time.Hour
)

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config.
type Config struct {
	// Sensors are the luftdaten.info sensor ids to evaluate, in order.
	// Numbers and strings are both accepted; ids keep their literal form.
	Sensors []SensorID `yaml:"sensors"`

	// MaxValue is the PM10 threshold in µg/m³. An alarm is raised when
	// the highest reading is strictly greater.
	MaxValue Threshold `yaml:"max_value"`

	// Tokens are the Twitter OAuth1 credentials. Values support
	// environment variable substitution: ${VAR} or ${VAR:-default}
	Tokens *TokensConfig `yaml:"tokens"`

	// City is named in the alert text. Defaults to "Freiburg".
	City string `yaml:"city"`

	// Message is the alert text template. Defaults to the classic
	// "Achtung {{.City}}! Feinstaubwerte hoch ..." text.
	Message string `yaml:"message"`

	// SensorURL is the sensor API template containing {id}.
	SensorURL string `yaml:"sensor_url"`

	// TwitterURL overrides the tweet creation endpoint.
	TwitterURL string `yaml:"twitter_url"`

	// Timeout is the per-request timeout for the sensor API. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Interval is the time between runs in watch mode. Defaults to 5m.
	Interval Duration `yaml:"interval"`

	// Port is the HTTP port of watch mode. Defaults to 8080.
	Port int `yaml:"port"`

	// DryRun logs alerts instead of publishing them.
	DryRun bool `yaml:"dry_run"`

	// Kafka enables the Kafka alert sink.
	Kafka *KafkaConfig `yaml:"kafka"`

	// MQTT enables the MQTT alert sink.
	MQTT *MQTTConfig `yaml:"mqtt"`
}

// TokensConfig holds the four Twitter OAuth1 secrets.
type TokensConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	AccessKey      string `yaml:"access_key"`
	AccessSecret   string `yaml:"access_secret"`
}

// KafkaConfig configures the Kafka alert sink.
type KafkaConfig struct {
	// Brokers are host:port addresses. Values support env substitution.
	Brokers []string `yaml:"brokers"`

	// Topic receives the alert events.
	Topic string `yaml:"topic"`
}

// MQTTConfig configures the MQTT alert sink.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker"`

	// Topic receives the alert events.
	Topic string `yaml:"topic"`

	// ClientID identifies the client. Defaults to "feinstaubalarm".
	ClientID string `yaml:"client_id"`

	// QoS is 0, 1 or 2.
	QoS int `yaml:"qos"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SensorID is a sensor id given as a number or a string.
type SensorID string

// UnmarshalYAML keeps the literal text of integer and string scalars, so
// 0042 stays "0042". Other kinds of values are rejected.
func (s *SensorID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: sensor id must be a number or string", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!str":
		*s = SensorID(node.Value)
		return nil
	default:
		return fmt.Errorf("line %d: sensor id must be an integer or string, got %q", node.Line, node.Value)
	}
}

// Threshold is a decimal PM10 limit. The zero value is "not set".
type Threshold struct {
	Value decimal.Decimal
	Set   bool
}

// UnmarshalYAML parses numbers and numeric strings without going through
// float64, so 50.1 stays exactly 50.1.
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: max_value must be a number", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float", "!!str":
	default:
		return fmt.Errorf("line %d: max_value must be a number, got %q", node.Line, node.Value)
	}

	v, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid max_value %q", node.Line, node.Value)
	}

	t.Value = v
	t.Set = true
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// envField names a config value subject to environment expansion.
type envField struct {
	name  string
	value *string
}

// expandAll expands environment variables in each field, in order.
func expandAll(fields ...envField) error {
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

// Load reads and parses a configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses JSON or YAML configuration data.
//
// Environment variables are expanded in tokens, URLs, broker addresses and
// broker credentials. Defaults are applied for City, SensorURL, Timeout (10s),
// Interval (5m) and Port (8080).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.City == "" {
		cfg.City = feinstaubalarm.DefaultCity
	}
	if cfg.SensorURL == "" {
		cfg.SensorURL = feinstaubalarm.DefaultSensorURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(defaultTimeout)
	}
	if cfg.Interval == 0 {
		cfg.Interval = Duration(defaultInterval)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if len(c.Sensors) == 0 {
		return errors.New("at least one sensor must be defined")
	}
	seen := make(map[SensorID]int, len(c.Sensors))
	for i, id := range c.Sensors {
		if id == "" {
			return fmt.Errorf("sensors[%d]: id cannot be empty", i)
		}
		if first, exists := seen[id]; exists {
			return fmt.Errorf("sensors[%d]: duplicate sensor id %q (first at sensors[%d])", i, id, first)
		}
		seen[id] = i
	}

	if !c.MaxValue.Set {
		return errors.New("max_value is required")
	}
	if c.MaxValue.Value.IsNegative() {
		return fmt.Errorf("max_value cannot be negative, got %s", c.MaxValue.Value)
	}

	if err := expandAll(
		envField{"sensor_url", &c.SensorURL},
		envField{"twitter_url", &c.TwitterURL},
	); err != nil {
		return err
	}
	if _, err := feinstaubalarm.NewSensorURL(c.SensorURL); err != nil {
		return fmt.Errorf("sensor_url: %w", err)
	}

	if _, err := feinstaubalarm.NewAlertMessage(c.City, c.Message); err != nil {
		return fmt.Errorf("message: %w", err)
	}

	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, c.Timeout.Duration())
	}
	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Interval.Duration() > maxInterval {
		return fmt.Errorf("interval must not exceed %s, got %s", maxInterval, c.Interval.Duration())
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if t := c.Tokens; t != nil {
		if err := expandAll(
			envField{"tokens.consumer_key", &t.ConsumerKey},
			envField{"tokens.consumer_secret", &t.ConsumerSecret},
			envField{"tokens.access_key", &t.AccessKey},
			envField{"tokens.access_secret", &t.AccessSecret},
		); err != nil {
			return err
		}
		required := []struct{ name, value string }{
			{"consumer_key", t.ConsumerKey},
			{"consumer_secret", t.ConsumerSecret},
			{"access_key", t.AccessKey},
			{"access_secret", t.AccessSecret},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("tokens: %s is required", r.name)
			}
		}
	}

	if k := c.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			return errors.New("kafka: at least one broker is required")
		}
		for i := range k.Brokers {
			expanded, err := expandEnvVars(k.Brokers[i])
			if err != nil {
				return fmt.Errorf("kafka.brokers[%d]: %w", i, err)
			}
			if expanded == "" {
				return fmt.Errorf("kafka.brokers[%d]: address cannot be empty", i)
			}
			k.Brokers[i] = expanded
		}
		if k.Topic == "" {
			return errors.New("kafka: topic is required")
		}
	}

	if m := c.MQTT; m != nil {
		if err := expandAll(
			envField{"mqtt.broker", &m.Broker},
			envField{"mqtt.username", &m.Username},
			envField{"mqtt.password", &m.Password},
		); err != nil {
			return err
		}
		if m.Broker == "" {
			return errors.New("mqtt: broker is required")
		}
		if m.Topic == "" {
			return errors.New("mqtt: topic is required")
		}
		if m.QoS < 0 || m.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", m.QoS)
		}
	}

	if !c.DryRun && c.Tokens == nil && c.Kafka == nil && c.MQTT == nil {
		return errors.New("no alert sink configured: set tokens, kafka or mqtt, or enable dry_run")
	}

	return nil
}
