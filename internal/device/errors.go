package device

import "errors"

// Sentinel errors for device registry operations.
var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose id is taken.
	ErrDeviceExists = errors.New("device: already exists")
)
