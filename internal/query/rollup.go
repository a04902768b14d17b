package query

import (
	"github.com/aquasense/aquasense-core/internal/reading"
)

// rollupByDay re-buckets a group's samples into one entry per calendar
// day, in the order days are first seen in the timestamp sequence.
//
// For each field and day, non-missing values in that day reduce to
// {mean, min, max}; a day with no value for a field carries nils in all
// three sequences. On an empty group the rollup is a no-op and returns
// empty sequences.
func rollupByDay(g group, fields []reading.Field) ([]string, map[reading.Field]*FieldSeries) {
	var days []string
	dayIndex := make(map[string]int)
	for _, s := range g.samples {
		day := s.ts.Format(dayFormat)
		if _, ok := dayIndex[day]; !ok {
			dayIndex[day] = len(days)
			days = append(days, day)
		}
	}

	series := make(map[reading.Field]*FieldSeries, len(fields))
	for _, f := range fields {
		fs := &FieldSeries{
			Values: make([]*float64, len(days)),
			Min:    make([]*float64, len(days)),
			Max:    make([]*float64, len(days)),
		}

		sums := make([]float64, len(days))
		counts := make([]int, len(days))
		for _, s := range g.samples {
			v, ok := s.values[f]
			if !ok {
				continue
			}
			i := dayIndex[s.ts.Format(dayFormat)]
			if counts[i] == 0 || v < *fs.Min[i] {
				lo := v
				fs.Min[i] = &lo
			}
			if counts[i] == 0 || v > *fs.Max[i] {
				hi := v
				fs.Max[i] = &hi
			}
			sums[i] += v
			counts[i]++
		}
		for i := range days {
			if counts[i] == 0 {
				continue
			}
			mean := roundMean(sums[i], counts[i])
			fs.Values[i] = &mean
		}
		series[f] = fs
	}
	return days, series
}
