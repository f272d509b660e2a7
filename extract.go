package feinstaubalarm

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// snapshot is one entry of the sensor API's response array. Only the
// entries that are read get decoded, so a malformed older snapshot or a
// later value cannot hide the newest PM10 reading.
type snapshot struct {
	SensorDataValues []json.RawMessage `json:"sensordatavalues"`
}

// sensorDataValue is a single measured quantity inside a snapshot.
// Value is string-encoded upstream ("12.34"); a bare JSON number is accepted too.
type sensorDataValue struct {
	Value json.Number `json:"value"`
}

// ExtractPM10 returns the PM10 value of the most recent snapshot in resp.
//
// The body is a JSON array of snapshots ordered oldest first, so the last
// element is taken and only it is decoded. Within it, the first
// sensordatavalues entry is used.
//
// FRAGILE: luftdaten.info lists P1 (PM10) first for SDS011 sensors, and this
// position is the whole contract. value_type is not checked; if the upstream
// ever reorders the list, PM2.5 or another quantity will be read instead.
//
// The second return value is false, and the value zero, when resp is nil,
// the body is not a JSON array, the array or the last snapshot's value list
// is empty, or the value is not a decimal number.
func ExtractPM10(resp *Response) (decimal.Decimal, bool) {
	if resp == nil {
		return decimal.Zero, false
	}

	var snapshots []json.RawMessage
	if err := json.Unmarshal(resp.Body, &snapshots); err != nil {
		return decimal.Zero, false
	}
	if len(snapshots) == 0 {
		return decimal.Zero, false
	}

	var latest snapshot
	if err := json.Unmarshal(snapshots[len(snapshots)-1], &latest); err != nil {
		return decimal.Zero, false
	}
	if len(latest.SensorDataValues) == 0 {
		return decimal.Zero, false
	}

	var first sensorDataValue
	if err := json.Unmarshal(latest.SensorDataValues[0], &first); err != nil {
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(first.Value.String())
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
