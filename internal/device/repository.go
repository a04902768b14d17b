package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Registry defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock)
// and enables unit testing without database dependencies.
type Registry interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves devices matching the filter, ordered by id.
	List(ctx context.Context, filter ListFilter) ([]Device, error)

	// Exists reports whether a device id is registered.
	Exists(ctx context.Context, id string) (bool, error)

	// UpsertStatus creates-or-updates a device from a status message.
	// Existing devices get status (and firmware, if non-nil) overwritten;
	// unknown ids are created with location and field flags unset.
	// Creation is implicit: the registry is the sole creator of devices.
	UpsertStatus(ctx context.Context, id string, status bool, firmware *string) (*Device, error)

	// UpdateProfile sets the configurable parts of a device record.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateProfile(ctx context.Context, id string, profile Profile) (*Device, error)

	// AllocateID registers a new device under the next free numeric id
	// and returns that id.
	AllocateID(ctx context.Context) (string, error)
}

// SQLiteRegistry implements Registry using SQLite.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry creates a new SQLite-backed registry.
// The db parameter should be an open SQLite connection with the schema
// migrated.
func NewSQLiteRegistry(db *sql.DB) *SQLiteRegistry {
	return &SQLiteRegistry{db: db}
}

const deviceColumns = `id, location, status, firmware_version,
	temperature_enabled, turbidity_enabled, ph_enabled, tds_enabled,
	created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRegistry) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// List retrieves devices matching the filter, ordered by id.
func (r *SQLiteRegistry) List(ctx context.Context, filter ListFilter) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE 1=1`
	var args []any

	if filter.Location != nil {
		query += " AND location = ?"
		args = append(args, *filter.Location)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, boolToInt(*filter.Status))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Exists reports whether a device id is registered.
func (r *SQLiteRegistry) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM devices WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking device existence: %w", err)
	}
	return true, nil
}

// UpsertStatus creates-or-updates a device from a status message.
//
// The write is a single INSERT ... ON CONFLICT statement, so concurrent
// status messages for one device cannot lose updates. A nil firmware
// leaves any previously reported version in place.
func (r *SQLiteRegistry) UpsertStatus(ctx context.Context, id string, status bool, firmware *string) (*Device, error) {
	if id == "" {
		return nil, fmt.Errorf("upserting device status: %w", ErrDeviceNotFound)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, status, firmware_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			firmware_version = COALESCE(excluded.firmware_version, devices.firmware_version),
			updated_at = excluded.updated_at`,
		id, boolToInt(status), firmware, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting device status: %w", err)
	}

	return r.GetByID(ctx, id)
}

// UpdateProfile sets the configurable parts of a device record.
func (r *SQLiteRegistry) UpdateProfile(ctx context.Context, id string, profile Profile) (*Device, error) {
	query := "UPDATE devices SET updated_at = ?"
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if profile.Location != nil {
		query += ", location = ?"
		args = append(args, *profile.Location)
	}
	if profile.EnabledFields != nil {
		query += ", temperature_enabled = ?, turbidity_enabled = ?, ph_enabled = ?, tds_enabled = ?"
		args = append(args,
			boolToInt(profile.EnabledFields.Temperature),
			boolToInt(profile.EnabledFields.Turbidity),
			boolToInt(profile.EnabledFields.PH),
			boolToInt(profile.EnabledFields.TDS),
		)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating device profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating device profile: %w", err)
	}
	if affected == 0 {
		return nil, ErrDeviceNotFound
	}

	return r.GetByID(ctx, id)
}

// AllocateID registers a new device under the next free numeric id.
//
// Ids are allocated as max(numeric id) + 1; non-numeric ids (externally
// assigned) are ignored by the scan. The insert and the scan run in one
// transaction so two concurrent allocations cannot hand out the same id.
func (r *SQLiteRegistry) AllocateID(ctx context.Context) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("allocating device id: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var maxID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(CAST(id AS INTEGER)) FROM devices WHERE id GLOB '[0-9]*'`,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("allocating device id: %w", err)
	}

	next := int64(1)
	if maxID.Valid {
		next = maxID.Int64 + 1
	}
	id := strconv.FormatInt(next, 10)

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO devices (id, status, created_at, updated_at) VALUES (?, 0, ?, ?)",
		id, now, now,
	); err != nil {
		return "", fmt.Errorf("allocating device id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("allocating device id: %w", err)
	}
	return id, nil
}

// scanner abstracts sql.Row and sql.Rows for scanDevice.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row in deviceColumns order.
func scanDevice(s scanner) (*Device, error) {
	var (
		d         Device
		status    int
		temp      int
		turb      int
		ph        int
		tds       int
		createdAt string
		updatedAt string
	)

	err := s.Scan(
		&d.ID, &d.Location, &status, &d.FirmwareVersion,
		&temp, &turb, &ph, &tds,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Status = status != 0
	d.EnabledFields = FieldFlags{
		Temperature: temp != 0,
		Turbidity:   turb != 0,
		PH:          ph != 0,
		TDS:         tds != 0,
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &d, nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
