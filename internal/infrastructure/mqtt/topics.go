package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the AquaSense MQTT scheme.
//
// Field devices publish per-field sensor messages and periodic status
// messages; the core publishes commands back:
//
//	aquasense/devices/{deviceID}/status   device -> core
//	aquasense/sensors/{deviceID}/{field}  device -> core (one topic per field)
//	aquasense/devices/{deviceID}/cmd      core -> device
const (
	// TopicPrefix is the base for all AquaSense topics.
	TopicPrefix = "aquasense"

	// topicDevices is the segment for device status and command topics.
	topicDevices = "devices"

	// topicSensors is the segment for per-field sensor topics.
	topicSensors = "sensors"
)

// Topics provides builders and parsers for AquaSense MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// DeviceStatus returns the status topic for one device.
//
// Example: aquasense/devices/d-001/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/status", TopicPrefix, topicDevices, deviceID)
}

// AllDeviceStatuses returns the wildcard filter matching every device's
// status topic.
func (Topics) AllDeviceStatuses() string {
	return fmt.Sprintf("%s/%s/+/status", TopicPrefix, topicDevices)
}

// SensorField returns the topic one device publishes a single measurement
// field on.
//
// Example: aquasense/sensors/d-001/temperature
func (Topics) SensorField(deviceID, field string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefix, topicSensors, deviceID, field)
}

// SensorFieldWildcard returns the wildcard filter matching one field across
// all devices. Each recognised field gets its own subscription, mirroring
// the per-field delivery paths of the firmware.
func (Topics) SensorFieldWildcard(field string) string {
	return fmt.Sprintf("%s/%s/+/%s", TopicPrefix, topicSensors, field)
}

// DeviceCommand returns the outbound command topic for one device.
//
// Example: aquasense/devices/d-001/cmd
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/cmd", TopicPrefix, topicDevices, deviceID)
}

// SystemStatus returns the core's own online/offline status topic.
// Published retained, and used for the Last Will message.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// ParseDeviceStatus extracts the device id from a status topic.
// Returns ok=false for topics that don't match the scheme.
func (Topics) ParseDeviceStatus(topic string) (deviceID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != topicDevices || parts[3] != "status" {
		return "", false
	}
	if parts[2] == "" || parts[2] == "+" {
		return "", false
	}
	return parts[2], true
}

// ParseSensorField extracts the device id and field name from a sensor
// topic. The field name is returned as-is; validation against the
// recognised field set is the caller's concern.
func (Topics) ParseSensorField(topic string) (deviceID, field string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != topicSensors {
		return "", "", false
	}
	if parts[2] == "" || parts[2] == "+" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
