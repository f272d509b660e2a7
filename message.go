package feinstaubalarm

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

const (
	// DefaultCity is the place named in the alert text.
	DefaultCity = "Freiburg"

	// DefaultMessage is the alert text template.
	DefaultMessage = "Achtung {{.City}}! Feinstaubwerte hoch - Sensor: {{.Sensor}} ist bei PM10 {{.Value}} µg/m³"
)

// messageData is the data available to an alert template.
type messageData struct {
	City      string
	Sensor    string
	Value     string
	Threshold string
}

// AlertMessage renders the text published when the threshold is exceeded.
//
// The template uses Go's text/template syntax with the fields City, Sensor,
// Value and Threshold. Unknown fields fail at render time (missingkey=error).
type AlertMessage struct {
	city string
	tmpl *template.Template
}

// NewAlertMessage parses an alert template. An empty city falls back to
// [DefaultCity] and an empty text to [DefaultMessage].
func NewAlertMessage(city, text string) (AlertMessage, error) {
	if city == "" {
		city = DefaultCity
	}
	if strings.TrimSpace(text) == "" {
		text = DefaultMessage
	}

	tmpl, err := template.New("alert").Option("missingkey=error").Parse(text)
	if err != nil {
		return AlertMessage{}, fmt.Errorf("invalid message template: %w", err)
	}

	m := AlertMessage{city: city, tmpl: tmpl}

	// fail fast on templates that reference unknown fields
	if _, err := m.render(messageData{}); err != nil {
		return AlertMessage{}, fmt.Errorf("invalid message template: %w", err)
	}
	return m, nil
}

// Render returns the alert text for an alarm decision.
func (m AlertMessage) Render(d Decision) (string, error) {
	if m.tmpl == nil {
		return "", errors.New("alert message not initialised")
	}
	return m.render(messageData{
		City:      m.city,
		Sensor:    d.Sensor.String(),
		Value:     FormatValue(d.Value),
		Threshold: FormatValue(d.Threshold),
	})
}

func (m AlertMessage) render(data messageData) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
