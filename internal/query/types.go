package query

import (
	"time"

	"github.com/aquasense/aquasense-core/internal/reading"
)

// GroupBy selects the grouping key for assembled series.
type GroupBy string

// Supported grouping modes.
const (
	GroupByDevice   GroupBy = "device"
	GroupByLocation GroupBy = "location"
)

// dayFormat is the calendar-day label used by rollups. Truncating a
// label again yields the same label, so rollup is idempotent.
const dayFormat = "2006-01-02"

// Filter is the normalized query predicate.
//
// Start/End bound the window inclusively. DaysPast is a shortcut for
// [now − N days, now] and takes precedence over Start/End when set.
// When no bound is given at all, the configured rollup window applies.
// Fields restricts which value sequences are computed; empty means all.
type Filter struct {
	Start    *time.Time
	End      *time.Time
	DaysPast *int
	DeviceID *string
	Location *string
	Fields   []reading.Field
}

// fields returns the field set to compute, in canonical order.
func (f Filter) fields() []reading.Field {
	if len(f.Fields) == 0 {
		return reading.Fields()
	}
	return f.Fields
}

// FieldSeries is one field's computed sequence within a group, aligned
// to the group's Timestamps. After a rollup, Values holds the per-day
// mean and Min/Max the per-day extremes.
type FieldSeries struct {
	Values []*float64 `json:"values"`
	Min    []*float64 `json:"min,omitempty"`
	Max    []*float64 `json:"max,omitempty"`
}

// Summary holds per-field statistics over a group's whole window.
// All members are nil when the field has no non-missing sample.
// Mean is rounded to the nearest integer, ties to even.
type Summary struct {
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Mean *float64 `json:"mean"`
}

// GroupResult is the response payload for one group: index-aligned
// field arrays plus summary statistics. When RolledUp is set,
// Timestamps holds calendar-day labels instead of instants and each
// FieldSeries carries per-day mean/min/max.
type GroupResult struct {
	Key        string                         `json:"key"`
	Timestamps []string                       `json:"timestamps"`
	Fields     map[reading.Field]*FieldSeries `json:"fields"`
	Summary    map[reading.Field]Summary      `json:"summary,omitempty"`
	RolledUp   bool                           `json:"rolled_up"`
}
