package reading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// tsFormat is the canonical timestamp encoding in the readings table.
// RFC 3339 at second precision sorts lexicographically in time order,
// which the ts index relies on.
const tsFormat = time.RFC3339

// fieldColumns maps each recognised field onto its readings column.
// Dispatch goes through this closed map; field names never reach SQL
// as raw strings.
var fieldColumns = map[Field]string{
	FieldTemperature: "temperature",
	FieldTurbidity:   "turbidity",
	FieldPH:          "ph",
	FieldTDS:         "tds",
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed reading store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the reading for a key.
func (s *SQLiteStore) Get(ctx context.Context, deviceID string, ts time.Time) (*Reading, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT device_id, ts, temperature, turbidity, ph, tds
		FROM readings
		WHERE device_id = ? AND ts = ?`,
		deviceID, NormalizeTime(ts).Format(tsFormat),
	)

	r, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("%w: querying reading: %w", ErrStoreUnavailable, err)
	}
	return r, nil
}

// UpsertField creates the reading if absent and sets one field on it.
//
// The write is a single INSERT ... ON CONFLICT DO UPDATE statement, so
// it is atomic at the storage boundary: a concurrent upsert of another
// field on the same key can interleave freely without either write being
// lost.
func (s *SQLiteStore) UpsertField(ctx context.Context, deviceID string, ts time.Time, field Field, value float64) error {
	column, ok := fieldColumns[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	query := fmt.Sprintf(`
		INSERT INTO readings (device_id, ts, %[1]s)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id, ts) DO UPDATE SET %[1]s = excluded.%[1]s`,
		column,
	)

	_, err := s.db.ExecContext(ctx, query, deviceID, NormalizeTime(ts).Format(tsFormat), value)
	if err != nil {
		return fmt.Errorf("%w: upserting reading field: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Select returns all readings joined with their device's location,
// matching the selection, ordered by device id then timestamp.
func (s *SQLiteStore) Select(ctx context.Context, sel Selection) ([]Row, error) {
	query := `
		SELECT r.device_id, r.ts, r.temperature, r.turbidity, r.ph, r.tds, d.location
		FROM readings r
		JOIN devices d ON d.id = r.device_id
		WHERE 1=1`
	var args []any

	if sel.Start != nil {
		query += " AND r.ts >= ?"
		args = append(args, NormalizeTime(*sel.Start).Format(tsFormat))
	}
	if sel.End != nil {
		query += " AND r.ts <= ?"
		args = append(args, NormalizeTime(*sel.End).Format(tsFormat))
	}
	if sel.DeviceID != nil {
		query += " AND r.device_id = ?"
		args = append(args, *sel.DeviceID)
	}
	if sel.Location != nil {
		query += " AND d.location = ?"
		args = append(args, *sel.Location)
	}
	query += " ORDER BY r.device_id, r.ts"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting readings: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		r, location, err := scanJoinedReading(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reading row: %w", ErrStoreUnavailable, err)
		}
		result = append(result, Row{Reading: *r, Location: location})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating readings: %w", ErrStoreUnavailable, err)
	}
	return result, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanReading scans a reading row without the location column.
func scanReading(s scanner) (*Reading, error) {
	var (
		r    Reading
		ts   string
		temp sql.NullFloat64
		turb sql.NullFloat64
		ph   sql.NullFloat64
		tds  sql.NullFloat64
	)

	if err := s.Scan(&r.DeviceID, &ts, &temp, &turb, &ph, &tds); err != nil {
		return nil, err
	}
	fillReading(&r, ts, temp, turb, ph, tds)
	return &r, nil
}

// scanJoinedReading scans a reading row including the device location.
func scanJoinedReading(s scanner) (*Reading, *string, error) {
	var (
		r        Reading
		ts       string
		temp     sql.NullFloat64
		turb     sql.NullFloat64
		ph       sql.NullFloat64
		tds      sql.NullFloat64
		location sql.NullString
	)

	if err := s.Scan(&r.DeviceID, &ts, &temp, &turb, &ph, &tds, &location); err != nil {
		return nil, nil, err
	}
	fillReading(&r, ts, temp, turb, ph, tds)

	var loc *string
	if location.Valid {
		loc = &location.String
	}
	return &r, loc, nil
}

// fillReading populates Values from nullable columns and parses the timestamp.
func fillReading(r *Reading, ts string, temp, turb, ph, tds sql.NullFloat64) {
	r.Timestamp, _ = time.Parse(tsFormat, ts) //nolint:errcheck // Format is controlled
	r.Values = make(map[Field]float64, 4)
	if temp.Valid {
		r.Values[FieldTemperature] = temp.Float64
	}
	if turb.Valid {
		r.Values[FieldTurbidity] = turb.Float64
	}
	if ph.Valid {
		r.Values[FieldPH] = ph.Float64
	}
	if tds.Valid {
		r.Values[FieldTDS] = tds.Float64
	}
}
