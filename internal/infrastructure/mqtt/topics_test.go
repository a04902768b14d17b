package mqtt

import (
	"strings"
	"testing"
)

func TestTopics_Builders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device status", topics.DeviceStatus("d-001"), "aquasense/devices/d-001/status"},
		{"all device statuses", topics.AllDeviceStatuses(), "aquasense/devices/+/status"},
		{"sensor field", topics.SensorField("d-001", "temperature"), "aquasense/sensors/d-001/temperature"},
		{"sensor field wildcard", topics.SensorFieldWildcard("ph"), "aquasense/sensors/+/ph"},
		{"device command", topics.DeviceCommand("d-001"), "aquasense/devices/d-001/cmd"},
		{"system status", topics.SystemStatus(), "aquasense/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopics_ParseDeviceStatus(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"aquasense/devices/d-001/status", "d-001", true},
		{"aquasense/devices/42/status", "42", true},
		{"aquasense/devices//status", "", false},
		{"aquasense/devices/+/status", "", false},
		{"aquasense/sensors/d-001/temperature", "", false},
		{"other/devices/d-001/status", "", false},
		{"aquasense/devices/d-001/status/extra", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, ok := topics.ParseDeviceStatus(tt.topic)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ParseDeviceStatus(%q) = (%q, %v), want (%q, %v)",
					tt.topic, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestTopics_ParseSensorField(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		topic     string
		wantID    string
		wantField string
		wantOK    bool
	}{
		{"aquasense/sensors/d-001/temperature", "d-001", "temperature", true},
		{"aquasense/sensors/d-001/tds", "d-001", "tds", true},
		// Unrecognised field names still parse; validation happens downstream.
		{"aquasense/sensors/d-001/voltage", "d-001", "voltage", true},
		{"aquasense/devices/d-001/status", "", "", false},
		{"aquasense/sensors/d-001", "", "", false},
		{"aquasense/sensors//ph", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, field, ok := topics.ParseSensorField(tt.topic)
			if ok != tt.wantOK || id != tt.wantID || field != tt.wantField {
				t.Errorf("ParseSensorField(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, id, field, ok, tt.wantID, tt.wantField, tt.wantOK)
			}
		})
	}
}

func TestBuildStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("core-1")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload malformed: %s", online)
	}

	offline := buildOfflinePayload("core-1")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload malformed: %s", offline)
	}
}
