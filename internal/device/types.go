package device

import "time"

// Device represents a field unit reporting water-quality measurements.
// This matches the devices table in migrations/20260301_000000_initial_schema.up.sql.
type Device struct {
	// ID is the stable device identifier, externally assigned or
	// allocated by AllocateID on first registration.
	ID string `json:"id"`

	// Location is a free-text label, unset until configured.
	Location *string `json:"location,omitempty"`

	// Status is the last reported online/offline state (last-writer-wins).
	Status bool `json:"status"`

	// FirmwareVersion is the last reported firmware (last-writer-wins).
	FirmwareVersion *string `json:"firmware_version,omitempty"`

	// EnabledFields records which measurement fields this device reports.
	EnabledFields FieldFlags `json:"enabled_fields"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FieldFlags holds one boolean per recognised measurement field.
type FieldFlags struct {
	Temperature bool `json:"temperature"`
	Turbidity   bool `json:"turbidity"`
	PH          bool `json:"ph"`
	TDS         bool `json:"tds"`
}

// Profile carries the configurable parts of a device record.
// Nil members are left untouched by UpdateProfile.
type Profile struct {
	Location      *string     `json:"location,omitempty"`
	EnabledFields *FieldFlags `json:"enabled_fields,omitempty"`
}

// ListFilter narrows List results. Nil members match everything.
type ListFilter struct {
	Location *string
	Status   *bool
}
