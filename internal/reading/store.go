package reading

import (
	"context"
	"time"
)

// Store is the storage boundary for merged readings.
//
// Implementations must make UpsertField atomic per (deviceID, timestamp,
// field): concurrent upserts of different fields on one key must both be
// reflected in the stored record. The Merger additionally serialises
// whole merges per key, so Get-after-Upsert within one merge observes a
// consistent record.
type Store interface {
	// Get retrieves the reading for a key.
	// Returns ErrReadingNotFound if no field has been stored for it.
	Get(ctx context.Context, deviceID string, ts time.Time) (*Reading, error)

	// UpsertField creates the reading if absent and sets one field on it.
	// Existing values of other fields are never touched.
	UpsertField(ctx context.Context, deviceID string, ts time.Time, field Field, value float64) error

	// Select returns all readings joined with their device's location,
	// matching the selection, ordered by device id then timestamp.
	Select(ctx context.Context, sel Selection) ([]Row, error)
}
