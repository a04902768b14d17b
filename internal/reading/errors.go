package reading

import "errors"

// Sentinel errors for merge and store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidField is returned for field names outside the recognised set.
	ErrInvalidField = errors.New("reading: invalid field")

	// ErrUnknownDevice is returned when merging a reading for a device id
	// that was never registered. Sensor messages do not create devices;
	// the registry is the sole creator.
	ErrUnknownDevice = errors.New("reading: unknown device")

	// ErrReadingNotFound is returned when no reading exists for a key.
	ErrReadingNotFound = errors.New("reading: not found")

	// ErrStoreUnavailable wraps storage-boundary failures. Ingestion
	// retries these a bounded number of times before dropping the message.
	ErrStoreUnavailable = errors.New("reading: store unavailable")
)
