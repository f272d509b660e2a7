package config

import (
	"log/slog"

	"github.com/alpensichtung/feinstaubalarm"
	"github.com/alpensichtung/feinstaubalarm/publish"
)

// BuildOptions converts parsed configuration into Monitor options.
//
// dryRun forces the log sink in addition to the file's own dry_run setting.
// The returned options include every configured publisher.
func BuildOptions(cfg *Config, logger *slog.Logger, dryRun bool) ([]feinstaubalarm.Option, error) {
	sensors := make([]feinstaubalarm.SensorID, 0, len(cfg.Sensors))
	for _, id := range cfg.Sensors {
		sensors = append(sensors, feinstaubalarm.SensorID(id))
	}

	opts := []feinstaubalarm.Option{
		feinstaubalarm.WithSensors(sensors...),
		feinstaubalarm.WithThreshold(cfg.MaxValue.Value),
		feinstaubalarm.WithSensorURL(cfg.SensorURL),
		feinstaubalarm.WithTimeout(cfg.Timeout.Duration()),
		feinstaubalarm.WithAlertMessage(cfg.City, cfg.Message),
	}
	if logger != nil {
		opts = append(opts, feinstaubalarm.WithLogger(logger))
	}

	publishers, err := BuildPublishers(cfg, logger, dryRun)
	if err != nil {
		return nil, err
	}
	for _, p := range publishers {
		opts = append(opts, feinstaubalarm.WithPublisher(p))
	}

	return opts, nil
}

// BuildPublishers creates the alert sinks named in the configuration.
//
// In dry-run mode (flag or dry_run) the only sink is the log sink and no
// connection to Twitter or a broker is ever made.
func BuildPublishers(cfg *Config, logger *slog.Logger, dryRun bool) ([]feinstaubalarm.Publisher, error) {
	if dryRun || cfg.DryRun {
		return []feinstaubalarm.Publisher{publish.NewLog(logger)}, nil
	}

	var publishers []feinstaubalarm.Publisher

	if t := cfg.Tokens; t != nil {
		tw, err := publish.NewTwitter(publish.TwitterCredentials{
			ConsumerKey:    t.ConsumerKey,
			ConsumerSecret: t.ConsumerSecret,
			AccessKey:      t.AccessKey,
			AccessSecret:   t.AccessSecret,
		}, cfg.TwitterURL)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, tw)
	}

	if k := cfg.Kafka; k != nil {
		kp, err := publish.NewKafka(k.Brokers, k.Topic)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, kp)
	}

	if m := cfg.MQTT; m != nil {
		mp, err := publish.NewMQTT(publish.MQTTConfig{
			Broker:   m.Broker,
			Topic:    m.Topic,
			ClientID: m.ClientID,
			QoS:      byte(m.QoS),
			Username: m.Username,
			Password: m.Password,
		})
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, mp)
	}

	return publishers, nil
}
