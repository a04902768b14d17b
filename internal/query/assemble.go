package query

import (
	"sort"
	"time"

	"github.com/aquasense/aquasense-core/internal/reading"
)

// sample is the internal row representation: one distinct timestamp in
// a group and the field values observed at it. Keeping rows as
// timestamp→values records until the response boundary avoids manual
// index bookkeeping across parallel arrays.
type sample struct {
	ts     time.Time
	values map[reading.Field]float64
}

// group is an assembled series before flattening.
type group struct {
	key     string
	samples []sample
}

// assemble partitions rows by the grouping key and merges them into
// ordered samples, one per distinct timestamp in the group.
//
// Rows within a group that share a timestamp are merged field-wise,
// later row wins per field. Rows without a location are excluded from
// location grouping; a device that has not been placed has no series
// on a per-location view.
func assemble(rows []reading.Row, groupBy GroupBy) []group {
	byKey := make(map[string]map[time.Time]map[reading.Field]float64)

	for _, row := range rows {
		var key string
		switch groupBy {
		case GroupByLocation:
			if row.Location == nil {
				continue
			}
			key = *row.Location
		default:
			key = row.DeviceID
		}

		byTS, ok := byKey[key]
		if !ok {
			byTS = make(map[time.Time]map[reading.Field]float64)
			byKey[key] = byTS
		}
		values, ok := byTS[row.Timestamp]
		if !ok {
			values = make(map[reading.Field]float64, len(row.Values))
			byTS[row.Timestamp] = values
		}
		for f, v := range row.Values {
			values[f] = v
		}
	}

	groups := make([]group, 0, len(byKey))
	for key, byTS := range byKey {
		g := group{key: key, samples: make([]sample, 0, len(byTS))}
		for ts, values := range byTS {
			g.samples = append(g.samples, sample{ts: ts, values: values})
		}
		sort.Slice(g.samples, func(i, j int) bool {
			return g.samples[i].ts.Before(g.samples[j].ts)
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

// flatten turns a group's samples into the response representation:
// one timestamp sequence and an index-aligned value sequence per
// requested field, with explicit nils where a timestamp carries no
// value for the field.
func flatten(g group, fields []reading.Field) ([]string, map[reading.Field]*FieldSeries) {
	timestamps := make([]string, len(g.samples))
	series := make(map[reading.Field]*FieldSeries, len(fields))
	for _, f := range fields {
		series[f] = &FieldSeries{Values: make([]*float64, len(g.samples))}
	}

	for i, s := range g.samples {
		timestamps[i] = s.ts.Format(time.RFC3339)
		for _, f := range fields {
			if v, ok := s.values[f]; ok {
				v := v
				series[f].Values[i] = &v
			}
		}
	}
	return timestamps, series
}
