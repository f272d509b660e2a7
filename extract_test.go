package feinstaubalarm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractPM10(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      string
		wantFound bool
	}{
		{
			name: "newest snapshot wins",
			body: `[{"sensordatavalues":[{"value":"1.11","value_type":"P1"}]},` +
				`{"sensordatavalues":[{"value":"3.33","value_type":"P1"}]}]`,
			want:      "3.33",
			wantFound: true,
		},
		{
			name: "first value of snapshot is used",
			body: `[{},{"sensordatavalues":[` +
				`{"id":123456789,"value":"1.11","value_type":"P1"},` +
				`{"id":234567890,"value":"2.22","value_type":"P2"}]}]`,
			want:      "1.11",
			wantFound: true,
		},
		{
			name: "position beats value_type",
			body: `[{"sensordatavalues":[` +
				`{"value":"7.5","value_type":"P2"},` +
				`{"value":"42","value_type":"P1"}]}]`,
			want:      "7.5",
			wantFound: true,
		},
		{
			name:      "integer string",
			body:      `[{"sensordatavalues":[{"value":"60","value_type":"P1"}]}]`,
			want:      "60",
			wantFound: true,
		},
		{
			name: "malformed older snapshot is ignored",
			body: `[{"sensordatavalues":[{"value":12.5}]},` +
				`{"sensordatavalues":"broken"},` +
				`{"sensordatavalues":[{"value":"3.33"}]}]`,
			want:      "3.33",
			wantFound: true,
		},
		{
			name:      "numeric value",
			body:      `[{"sensordatavalues":[{"value":53.20,"value_type":"P1"}]}]`,
			want:      "53.20",
			wantFound: true,
		},
		{
			name:      "malformed later value is ignored",
			body:      `[{"sensordatavalues":[{"value":"7.1"},{"value":{"x":1}}]}]`,
			want:      "7.1",
			wantFound: true,
		},
		{"empty array", `[ ]`, "0", false},
		{"null value", `[{"sensordatavalues":[{"value":null}]}]`, "0", false},
		{"empty value", `[{"sensordatavalues":[{"value":""}]}]`, "0", false},
		{"boolean value", `[{"sensordatavalues":[{"value":true}]}]`, "0", false},
		{"newest snapshot without values", `[{"sensordatavalues":[{"value":"9"}]},{"sensordatavalues":[]}]`, "0", false},
		{"newest snapshot missing values key", `[{"sensordatavalues":[{"value":"9"}]},{}]`, "0", false},
		{"not json", `<html>502</html>`, "0", false},
		{"object instead of array", `{"sensordatavalues":[]}`, "0", false},
		{"value not a number", `[{"sensordatavalues":[{"value":"n/a"}]}]`, "0", false},
		{"empty body", ``, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractPM10(&Response{StatusCode: 200, Body: []byte(tt.body)})
			if found != tt.wantFound {
				t.Errorf("ExtractPM10() found = %v, want %v", found, tt.wantFound)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ExtractPM10() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractPM10_NilResponse(t *testing.T) {
	got, found := ExtractPM10(nil)
	if found {
		t.Error("ExtractPM10(nil) found = true, want false")
	}
	if !got.IsZero() {
		t.Errorf("ExtractPM10(nil) = %s, want 0", got)
	}
}

// TestExtractPM10_KeepsPrecision verifies decimal values are not routed
// through float64.
func TestExtractPM10_KeepsPrecision(t *testing.T) {
	body := `[{"sensordatavalues":[{"value":"50.000000000000000001","value_type":"P1"}]}]`

	got, found := ExtractPM10(&Response{StatusCode: 200, Body: []byte(body)})
	if !found {
		t.Fatal("ExtractPM10() found = false, want true")
	}
	if !got.GreaterThan(decimal.NewFromInt(50)) {
		t.Errorf("ExtractPM10() = %s, want strictly greater than 50", got)
	}
}
