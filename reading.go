package feinstaubalarm

import "github.com/shopspring/decimal"

// Response is the raw answer of the sensor API for a single sensor.
//
// Response is handed from the [Fetcher] to [ExtractPM10] unchanged. A nil
// *Response is the "no data" sentinel: the sensor could not be reached or
// answered with a non-2xx status.
type Response struct {
	// StatusCode is the HTTP status code returned by the sensor API.
	StatusCode int

	// Body is the HTTP response body, limited to 1MB.
	Body []byte
}

// Reading pairs a sensor with its most recent PM10 value.
//
// A reading that could not be obtained has Available set to false and a zero
// Value. Zero is never competitive against a non-negative threshold, so a
// missing sensor never suppresses an alarm raised by a healthy one.
type Reading struct {
	// Sensor is the configured sensor id.
	Sensor SensorID

	// Value is the PM10 concentration in µg/m³.
	Value decimal.Decimal

	// Available reports whether Value came from the sensor API.
	Available bool
}

// Decision is the outcome of comparing the highest reading to the threshold.
type Decision struct {
	// Alarm is true when Value is strictly greater than Threshold.
	Alarm bool

	// Sensor is the sensor holding the highest reading.
	// Empty when no readings were evaluated.
	Sensor SensorID

	// Value is the highest reading.
	Value decimal.Decimal

	// Threshold is the configured limit the value was compared against.
	Threshold decimal.Decimal
}

// FormatValue renders d with the scale it was parsed with, so the upstream
// literal "53.20" stays "53.20". decimal.Decimal.String drops trailing zeros.
func FormatValue(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
