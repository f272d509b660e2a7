package feinstaubalarm

import "github.com/shopspring/decimal"

// Evaluate picks the highest reading and compares it to threshold.
//
// Readings are folded in order; a later reading only takes over when it is
// strictly greater, so on ties the earliest configured sensor wins. The
// decision is an alarm when the highest value is strictly greater than
// threshold. Unavailable readings take part with their zero value.
//
// An empty slice yields a decision without alarm and an empty Sensor.
func Evaluate(readings []Reading, threshold decimal.Decimal) Decision {
	decision := Decision{Threshold: threshold}
	if len(readings) == 0 {
		return decision
	}

	highest := readings[0]
	for _, r := range readings[1:] {
		if r.Value.GreaterThan(highest.Value) {
			highest = r
		}
	}

	decision.Sensor = highest.Sensor
	decision.Value = highest.Value
	decision.Alarm = highest.Value.GreaterThan(threshold)
	return decision
}
