package query

import (
	"math"

	"github.com/aquasense/aquasense-core/internal/reading"
)

// roundMean rounds an arithmetic mean to the nearest integer, ties to
// even. One fixed rule everywhere; summaries and day buckets must agree.
func roundMean(sum float64, count int) float64 {
	return math.RoundToEven(sum / float64(count))
}

// summarize computes per-field min/max/mean over a group's samples.
// Missing values are dropped first; a field with no remaining sample
// gets a Summary with all members nil.
func summarize(samples []sample, fields []reading.Field) map[reading.Field]Summary {
	out := make(map[reading.Field]Summary, len(fields))
	for _, f := range fields {
		var (
			sum      float64
			count    int
			min, max float64
		)
		for _, s := range samples {
			v, ok := s.values[f]
			if !ok {
				continue
			}
			if count == 0 || v < min {
				min = v
			}
			if count == 0 || v > max {
				max = v
			}
			sum += v
			count++
		}

		if count == 0 {
			out[f] = Summary{}
			continue
		}
		mean := roundMean(sum, count)
		lo, hi := min, max
		out[f] = Summary{Min: &lo, Max: &hi, Mean: &mean}
	}
	return out
}
