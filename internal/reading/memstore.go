package reading

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store implementation.
//
// Used in tests and as a fallback when persistence is disabled. Locations
// for Select joins come from SetLocation, since there is no device table
// to join against.
type MemStore struct {
	mu        sync.Mutex
	readings  map[string]*Reading
	locations map[string]*string
}

// NewMemStore creates an empty in-memory reading store.
func NewMemStore() *MemStore {
	return &MemStore{
		readings:  make(map[string]*Reading),
		locations: make(map[string]*string),
	}
}

// SetLocation records a device's location for Select results.
func (s *MemStore) SetLocation(deviceID string, location *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[deviceID] = location
}

// Get retrieves the reading for a key.
func (s *MemStore) Get(_ context.Context, deviceID string, ts time.Time) (*Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.readings[memKey(deviceID, ts)]
	if !ok {
		return nil, ErrReadingNotFound
	}
	return copyReading(r), nil
}

// UpsertField creates the reading if absent and sets one field on it.
func (s *MemStore) UpsertField(_ context.Context, deviceID string, ts time.Time, field Field, value float64) error {
	if _, ok := fieldColumns[field]; !ok {
		return ErrInvalidField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(deviceID, ts)
	r, ok := s.readings[key]
	if !ok {
		r = &Reading{
			DeviceID:  deviceID,
			Timestamp: NormalizeTime(ts),
			Values:    make(map[Field]float64, 4),
		}
		s.readings[key] = r
	}
	r.Values[field] = value
	return nil
}

// Select returns matching readings ordered by device id then timestamp.
func (s *MemStore) Select(_ context.Context, sel Selection) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Row
	for _, r := range s.readings {
		if !s.matches(r, sel) {
			continue
		}
		result = append(result, Row{Reading: *copyReading(r), Location: s.locations[r.DeviceID]})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DeviceID != result[j].DeviceID {
			return result[i].DeviceID < result[j].DeviceID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (s *MemStore) matches(r *Reading, sel Selection) bool {
	if sel.Start != nil && r.Timestamp.Before(NormalizeTime(*sel.Start)) {
		return false
	}
	if sel.End != nil && r.Timestamp.After(NormalizeTime(*sel.End)) {
		return false
	}
	if sel.DeviceID != nil && r.DeviceID != *sel.DeviceID {
		return false
	}
	if sel.Location != nil {
		loc := s.locations[r.DeviceID]
		if loc == nil || *loc != *sel.Location {
			return false
		}
	}
	return true
}

func memKey(deviceID string, ts time.Time) string {
	return deviceID + "|" + NormalizeTime(ts).Format(tsFormat)
}

func copyReading(r *Reading) *Reading {
	out := &Reading{
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp,
		Values:    make(map[Field]float64, len(r.Values)),
	}
	for f, v := range r.Values {
		out.Values[f] = v
	}
	return out
}
