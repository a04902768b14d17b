package reading

import (
	"context"
	"fmt"
	"time"
)

// DeviceChecker reports whether a device id is registered.
// Satisfied by device.Registry.
type DeviceChecker interface {
	Exists(ctx context.Context, deviceID string) (bool, error)
}

// Merger folds per-field measurement messages into stored readings.
//
// Two mechanisms guard against lost updates: the store's per-field upsert
// is atomic at the storage boundary, and the merger additionally holds a
// per-key lock across the upsert and the readback so each merge observes
// a consistent record.
type Merger struct {
	store   Store
	devices DeviceChecker
	locks   keyLock
}

// NewMerger creates a merger over a store and a device registry.
func NewMerger(store Store, devices DeviceChecker) *Merger {
	return &Merger{store: store, devices: devices}
}

// MergeField merges one field value into the reading keyed by device id
// and timestamp, creating the reading on first arrival. It returns the
// merged reading as stored after this write.
//
// Unknown fields are rejected with ErrInvalidField and unknown devices
// with ErrUnknownDevice; neither touches the store. Measurement messages
// never register devices.
func (m *Merger) MergeField(ctx context.Context, deviceID string, ts time.Time, field Field, value float64) (*Reading, error) {
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}

	known, err := m.devices.Exists(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("checking device %q: %w", deviceID, err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, deviceID)
	}

	ts = NormalizeTime(ts)

	unlock := m.locks.Lock(deviceID, ts)
	defer unlock()

	if err := m.store.UpsertField(ctx, deviceID, ts, field, value); err != nil {
		return nil, err
	}
	return m.store.Get(ctx, deviceID, ts)
}
