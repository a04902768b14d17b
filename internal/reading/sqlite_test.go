package reading

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates an in-memory SQLite database with the readings
// schema and two registered devices.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			location TEXT,
			status INTEGER NOT NULL DEFAULT 0
		) STRICT;
		CREATE TABLE readings (
			device_id TEXT NOT NULL REFERENCES devices(id),
			ts TEXT NOT NULL,
			temperature REAL,
			turbidity REAL,
			ph REAL,
			tds REAL,
			PRIMARY KEY (device_id, ts)
		) STRICT;
		INSERT INTO devices (id, location, status) VALUES
			('1', 'tank-a', 1),
			('2', 'tank-b', 1),
			('3', NULL, 0);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return NewSQLiteStore(db)
}

func TestSQLiteStore_UpsertField_CreatesAndAccumulates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.UpsertField(ctx, "1", ts, FieldTemperature, 21.5); err != nil {
		t.Fatalf("upserting temperature: %v", err)
	}
	if err := store.UpsertField(ctx, "1", ts, FieldTDS, 310); err != nil {
		t.Fatalf("upserting tds: %v", err)
	}

	r, err := store.Get(ctx, "1", ts)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v, ok := r.Value(FieldTemperature); !ok || v != 21.5 {
		t.Errorf("temperature = %v, %v; want 21.5, true", v, ok)
	}
	if v, ok := r.Value(FieldTDS); !ok || v != 310.0 {
		t.Errorf("tds = %v, %v; want 310, true", v, ok)
	}
	if _, ok := r.Value(FieldPH); ok {
		t.Error("ph should not be set")
	}
	if !r.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, ts)
	}
}

func TestSQLiteStore_UpsertField_ReplacesExistingValue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.UpsertField(ctx, "1", ts, FieldPH, 7.1); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertField(ctx, "1", ts, FieldTurbidity, 4.2); err != nil {
		t.Fatalf("upserting turbidity: %v", err)
	}
	if err := store.UpsertField(ctx, "1", ts, FieldPH, 6.9); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	r, err := store.Get(ctx, "1", ts)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v, _ := r.Value(FieldPH); v != 6.9 {
		t.Errorf("ph = %v, want 6.9", v)
	}
	if v, _ := r.Value(FieldTurbidity); v != 4.2 {
		t.Errorf("turbidity = %v, want 4.2: other fields must survive the update", v)
	}
}

func TestSQLiteStore_UpsertField_RejectsUnknownField(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := store.UpsertField(ctx, "1", ts, Field("voltage"), 3.3)
	if !errors.Is(err, ErrInvalidField) {
		t.Errorf("err = %v, want ErrInvalidField", err)
	}
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "1", time.Now())
	if !errors.Is(err, ErrReadingNotFound) {
		t.Errorf("err = %v, want ErrReadingNotFound", err)
	}
}

func TestSQLiteStore_Select(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		device string
		offset time.Duration
		field  Field
		value  float64
	}{
		{"1", 0, FieldTemperature, 20.0},
		{"1", time.Hour, FieldTemperature, 21.0},
		{"2", 30 * time.Minute, FieldPH, 7.0},
		{"3", 2 * time.Hour, FieldTDS, 290},
	}
	for _, s := range seed {
		if err := store.UpsertField(ctx, s.device, base.Add(s.offset), s.field, s.value); err != nil {
			t.Fatalf("seeding %s/%s: %v", s.device, s.field, err)
		}
	}

	t.Run("all ordered by device then time", func(t *testing.T) {
		rows, err := store.Select(ctx, Selection{})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("got %d rows, want 4", len(rows))
		}
		wantDevices := []string{"1", "1", "2", "3"}
		for i, want := range wantDevices {
			if rows[i].DeviceID != want {
				t.Errorf("rows[%d].DeviceID = %s, want %s", i, rows[i].DeviceID, want)
			}
		}
		if !rows[0].Timestamp.Before(rows[1].Timestamp) {
			t.Error("rows for one device must be in timestamp order")
		}
	})

	t.Run("by device", func(t *testing.T) {
		id := "1"
		rows, err := store.Select(ctx, Selection{DeviceID: &id})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("got %d rows, want 2", len(rows))
		}
	})

	t.Run("by location carries location", func(t *testing.T) {
		loc := "tank-b"
		rows, err := store.Select(ctx, Selection{Location: &loc})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		if rows[0].Location == nil || *rows[0].Location != "tank-b" {
			t.Errorf("Location = %v, want tank-b", rows[0].Location)
		}
	})

	t.Run("inclusive time window", func(t *testing.T) {
		start := base.Add(30 * time.Minute)
		end := base.Add(time.Hour)
		rows, err := store.Select(ctx, Selection{Start: &start, End: &end})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("got %d rows, want 2: both window edges are inclusive", len(rows))
		}
	})

	t.Run("null location scans as nil", func(t *testing.T) {
		id := "3"
		rows, err := store.Select(ctx, Selection{DeviceID: &id})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		if rows[0].Location != nil {
			t.Errorf("Location = %v, want nil", *rows[0].Location)
		}
	})
}
