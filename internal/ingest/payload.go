package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aquasense/aquasense-core/internal/reading"
)

// timestampFormats are the accepted sensor timestamp encodings, tried
// in order. Field units without an RFC 3339 clock send the plain form.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// statusPayload is the device status message.
// Status arrives as a numeric string from the firmware; anything
// non-numeric means offline.
type statusPayload struct {
	Status          any     `json:"status"`
	FirmwareVersion *string `json:"firmware_version"`
}

// decodeStatus parses a status payload into its online flag and
// optional firmware version.
func decodeStatus(payload []byte) (bool, *string, error) {
	var p statusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if p.Status == nil {
		return false, nil, fmt.Errorf("%w: missing status", ErrMalformedPayload)
	}

	var online bool
	switch v := p.Status.(type) {
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			online = n != 0
		}
	case float64:
		online = v != 0
	case bool:
		online = v
	}
	return online, p.FirmwareVersion, nil
}

// decodeSensor parses a per-field sensor payload. The value lives under
// a key named after the field itself, alongside the timestamp:
//
//	{"temperature": 21.5, "timestamp": "2026-03-01T12:00:00Z"}
func decodeSensor(field reading.Field, payload []byte) (float64, time.Time, error) {
	var p map[string]any
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	raw, ok := p[field.String()]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: missing %q value", ErrMalformedPayload, field)
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: %q value is not a number", ErrMalformedPayload, field)
	}

	rawTS, ok := p["timestamp"].(string)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: missing timestamp", ErrMalformedPayload)
	}
	ts, err := parseTimestamp(rawTS)
	if err != nil {
		return 0, time.Time{}, err
	}
	return value, ts, nil
}

// parseTimestamp tries the accepted timestamp encodings in order.
// Formats without a zone are taken as UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrMalformedPayload, s)
}
