package reading

import "time"

// Reading is one merged record of measurement values for a device at a
// specific timestamp. It accumulates fields as per-field messages arrive;
// a field set by one message is only replaced by a later message for the
// same key and field (last-writer-wins per field).
type Reading struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`

	// Values holds the fields observed so far. Absence of a key means no
	// message for that field has arrived yet.
	Values map[Field]float64 `json:"values"`
}

// Value returns the value for a field and whether it has been set.
func (r *Reading) Value(f Field) (float64, bool) {
	v, ok := r.Values[f]
	return v, ok
}

// NormalizeTime canonicalises a reading timestamp: UTC, second precision.
// Keys must compare equal across delivery paths, so every timestamp is
// normalised before it touches the store or a key lock.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Selection is the predicate for Store.Select.
// Nil members match everything; Start/End are inclusive.
type Selection struct {
	Start    *time.Time
	End      *time.Time
	DeviceID *string
	Location *string
}

// Row is a reading joined with its device's location, as returned by
// Store.Select for query-time grouping.
type Row struct {
	Reading
	Location *string
}
