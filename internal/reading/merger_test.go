package reading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRegistry is a DeviceChecker over a fixed set of known ids.
type fakeRegistry struct {
	known map[string]bool
}

func (f *fakeRegistry) Exists(_ context.Context, deviceID string) (bool, error) {
	return f.known[deviceID], nil
}

func newTestMerger(known ...string) (*Merger, *MemStore) {
	store := NewMemStore()
	reg := &fakeRegistry{known: make(map[string]bool)}
	for _, id := range known {
		reg.known[id] = true
	}
	return NewMerger(store, reg), store
}

func TestMergeField_AccumulatesFields(t *testing.T) {
	m, _ := newTestMerger("1")
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := m.MergeField(ctx, "1", ts, FieldTemperature, 21.5); err != nil {
		t.Fatalf("merging temperature: %v", err)
	}
	r, err := m.MergeField(ctx, "1", ts, FieldPH, 7.1)
	if err != nil {
		t.Fatalf("merging ph: %v", err)
	}

	if v, ok := r.Value(FieldTemperature); !ok || v != 21.5 {
		t.Errorf("temperature = %v, %v; want 21.5, true", v, ok)
	}
	if v, ok := r.Value(FieldPH); !ok || v != 7.1 {
		t.Errorf("ph = %v, %v; want 7.1, true", v, ok)
	}
	if _, ok := r.Value(FieldTurbidity); ok {
		t.Error("turbidity should not be set")
	}
}

func TestMergeField_OrderSymmetric(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, _ := newTestMerger("1")
	if _, err := first.MergeField(ctx, "1", ts, FieldTemperature, 21.5); err != nil {
		t.Fatalf("merging temperature: %v", err)
	}
	a, err := first.MergeField(ctx, "1", ts, FieldTDS, 310)
	if err != nil {
		t.Fatalf("merging tds: %v", err)
	}

	second, _ := newTestMerger("1")
	if _, err := second.MergeField(ctx, "1", ts, FieldTDS, 310); err != nil {
		t.Fatalf("merging tds: %v", err)
	}
	b, err := second.MergeField(ctx, "1", ts, FieldTemperature, 21.5)
	if err != nil {
		t.Fatalf("merging temperature: %v", err)
	}

	for _, f := range Fields() {
		av, aok := a.Value(f)
		bv, bok := b.Value(f)
		if av != bv || aok != bok {
			t.Errorf("field %s: order A,B gave %v,%v; order B,A gave %v,%v", f, av, aok, bv, bok)
		}
	}
}

func TestMergeField_LastWriterWinsPerField(t *testing.T) {
	m, _ := newTestMerger("1")
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := m.MergeField(ctx, "1", ts, FieldTurbidity, 4.2); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	r, err := m.MergeField(ctx, "1", ts, FieldTurbidity, 5.0)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if v, _ := r.Value(FieldTurbidity); v != 5.0 {
		t.Errorf("turbidity = %v, want 5.0", v)
	}
}

func TestMergeField_InvalidField(t *testing.T) {
	m, store := newTestMerger("1")
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := m.MergeField(ctx, "1", ts, Field("voltage"), 3.3)
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("err = %v, want ErrInvalidField", err)
	}
	if _, err := store.Get(ctx, "1", ts); !errors.Is(err, ErrReadingNotFound) {
		t.Errorf("store should be unchanged after rejected field, got %v", err)
	}
}

func TestMergeField_UnknownDevice(t *testing.T) {
	m, store := newTestMerger("1")
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := m.MergeField(ctx, "99", ts, FieldTemperature, 20.0)
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("err = %v, want ErrUnknownDevice", err)
	}
	if _, err := store.Get(ctx, "99", ts); !errors.Is(err, ErrReadingNotFound) {
		t.Errorf("store should be unchanged after unknown device, got %v", err)
	}
}

func TestMergeField_NormalizesTimestamps(t *testing.T) {
	m, _ := newTestMerger("1")
	ctx := context.Background()

	loc := time.FixedZone("BRT", -3*60*60)
	local := time.Date(2026, 3, 1, 9, 0, 0, 500_000_000, loc)
	utc := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := m.MergeField(ctx, "1", local, FieldTemperature, 21.5); err != nil {
		t.Fatalf("merging with local timestamp: %v", err)
	}
	r, err := m.MergeField(ctx, "1", utc, FieldPH, 7.1)
	if err != nil {
		t.Fatalf("merging with utc timestamp: %v", err)
	}

	if len(r.Values) != 2 {
		t.Errorf("got %d fields, want 2: equivalent timestamps must share a key", len(r.Values))
	}
}

func TestMergeField_ConcurrentFields(t *testing.T) {
	m, store := newTestMerger("1", "2")
	ctx := context.Background()

	const keys = 20
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	values := map[Field]float64{
		FieldTemperature: 21.5,
		FieldTurbidity:   4.2,
		FieldPH:          7.1,
		FieldTDS:         310,
	}

	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		for f, v := range values {
			wg.Add(1)
			go func(f Field, v float64, ts time.Time) {
				defer wg.Done()
				if _, err := m.MergeField(ctx, "1", ts, f, v); err != nil {
					t.Errorf("concurrent merge of %s: %v", f, err)
				}
			}(f, v, ts)
		}
	}
	wg.Wait()

	for i := 0; i < keys; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		r, err := store.Get(ctx, "1", ts)
		if err != nil {
			t.Fatalf("reading key %d: %v", i, err)
		}
		for f, want := range values {
			if got, ok := r.Value(f); !ok || got != want {
				t.Errorf("key %d field %s = %v, %v; want %v, true", i, f, got, ok, want)
			}
		}
	}
}
