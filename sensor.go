package feinstaubalarm

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultSensorURL is the luftdaten.info endpoint serving the last five
// minutes of measurements for one sensor. {id} is replaced by the sensor id.
const DefaultSensorURL = "http://api.luftdaten.info/static/v1/sensor/{id}/"

// sensorPlaceholder marks where the sensor id goes in a sensor URL template.
const sensorPlaceholder = "{id}"

// SensorID identifies a luftdaten.info sensor.
//
// The id is kept exactly as configured. Numeric ids in the configuration file
// are preserved in their literal form ("1337"), never reformatted.
type SensorID string

// String returns the sensor id as configured.
func (id SensorID) String() string {
	return string(id)
}

// SensorURL builds request URLs for sensors from a template containing {id}.
//
// SensorURL is immutable after creation via [NewSensorURL].
type SensorURL struct {
	template string
}

// NewSensorURL validates a sensor URL template.
//
// The template must be an absolute http or https URL and contain the {id}
// placeholder exactly once.
//
// Example:
//
//	u, err := feinstaubalarm.NewSensorURL("http://api.luftdaten.info/static/v1/sensor/{id}/")
func NewSensorURL(template string) (SensorURL, error) {
	if template == "" {
		return SensorURL{}, errors.New("sensor URL template cannot be empty")
	}
	if strings.Count(template, sensorPlaceholder) != 1 {
		return SensorURL{}, errors.New("sensor URL template must contain {id} exactly once")
	}

	parsedURL, err := url.Parse(strings.Replace(template, sensorPlaceholder, "0", 1))
	if err != nil {
		return SensorURL{}, errors.New("invalid sensor URL template: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return SensorURL{}, errors.New("sensor URL template must have a scheme (http:// or https://)")
	}

	return SensorURL{template: template}, nil
}

// For returns the request URL for the given sensor. The id is inserted
// exactly as configured, without escaping.
func (u SensorURL) For(id SensorID) string {
	return strings.Replace(u.template, sensorPlaceholder, string(id), 1)
}

// Template returns the template the URL was built from.
func (u SensorURL) Template() string {
	return u.template
}
