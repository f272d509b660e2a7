package feinstaubalarm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func reading(id string, value int64) Reading {
	return Reading{Sensor: SensorID(id), Value: decimal.NewFromInt(value), Available: true}
}

func TestEvaluate(t *testing.T) {
	threshold := decimal.NewFromInt(50)

	tests := []struct {
		name       string
		readings   []Reading
		wantAlarm  bool
		wantSensor SensorID
		wantValue  int64
	}{
		{"single above", []Reading{reading("1", 60)}, true, "1", 60},
		{"first of two is max", []Reading{reading("1", 60), reading("2", 10)}, true, "1", 60},
		{"second of two is max", []Reading{reading("1", 10), reading("2", 60)}, true, "2", 60},
		{"all below", []Reading{reading("1", 10), reading("2", 49)}, false, "2", 49},
		{"equal to threshold is no alarm", []Reading{reading("1", 50)}, false, "1", 50},
		{"tie keeps first seen", []Reading{reading("7", 80), reading("3", 80), reading("5", 80)}, true, "7", 80},
		{
			"unavailable reading is not competitive",
			[]Reading{{Sensor: "1"}, reading("2", 51)},
			true, "2", 51,
		},
		{
			"all unavailable",
			[]Reading{{Sensor: "1"}, {Sensor: "2"}},
			false, "1", 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.readings, threshold)
			if got.Alarm != tt.wantAlarm {
				t.Errorf("Evaluate().Alarm = %v, want %v", got.Alarm, tt.wantAlarm)
			}
			if got.Sensor != tt.wantSensor {
				t.Errorf("Evaluate().Sensor = %q, want %q", got.Sensor, tt.wantSensor)
			}
			if !got.Value.Equal(decimal.NewFromInt(tt.wantValue)) {
				t.Errorf("Evaluate().Value = %s, want %d", got.Value, tt.wantValue)
			}
			if !got.Threshold.Equal(threshold) {
				t.Errorf("Evaluate().Threshold = %s, want %s", got.Threshold, threshold)
			}
		})
	}
}

func TestEvaluate_Empty(t *testing.T) {
	got := Evaluate(nil, decimal.NewFromInt(50))
	if got.Alarm {
		t.Error("Evaluate(nil).Alarm = true, want false")
	}
	if got.Sensor != "" {
		t.Errorf("Evaluate(nil).Sensor = %q, want empty", got.Sensor)
	}
}

func TestEvaluate_DecimalBoundary(t *testing.T) {
	threshold := decimal.RequireFromString("50")
	readings := []Reading{{Sensor: "1", Value: decimal.RequireFromString("50.01"), Available: true}}

	if got := Evaluate(readings, threshold); !got.Alarm {
		t.Error("Evaluate() 50.01 > 50 should raise an alarm")
	}
}
