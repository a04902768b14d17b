package query

import (
	"context"
	"fmt"
	"time"

	"github.com/aquasense/aquasense-core/internal/reading"
)

// Service runs read queries: it assembles matching readings into
// grouped series, summarizes them, and conditionally rolls them up by
// calendar day.
type Service struct {
	store            reading.Store
	rollupWindowDays int
	now              func() time.Time
}

// NewService creates a query service over a reading store.
// rollupWindowDays is the default window in days; queries for exactly
// this window (or with no bound at all) are day-bucketed.
func NewService(store reading.Store, rollupWindowDays int) *Service {
	return &Service{
		store:            store,
		rollupWindowDays: rollupWindowDays,
		now:              time.Now,
	}
}

// Run evaluates a filter and returns one result per group.
//
// Each result carries index-aligned field arrays and summary statistics
// over the raw window. For the default window the per-timestamp series
// is replaced by a calendar-day rollup; any other explicit window
// returns the raw series. Errors surface synchronously and whole; no
// partial series is returned.
func (s *Service) Run(ctx context.Context, f Filter, groupBy GroupBy) ([]GroupResult, error) {
	if groupBy != GroupByDevice && groupBy != GroupByLocation {
		return nil, fmt.Errorf("%w: unknown grouping %q", ErrInvalidFilter, groupBy)
	}
	if f.DaysPast != nil && *f.DaysPast < 0 {
		return nil, fmt.Errorf("%w: negative day count %d", ErrInvalidFilter, *f.DaysPast)
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return nil, fmt.Errorf("%w: start after end", ErrInvalidFilter)
	}

	start, end, rollup := s.window(f)
	rows, err := s.store.Select(ctx, reading.Selection{
		Start:    start,
		End:      end,
		DeviceID: f.DeviceID,
		Location: f.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting readings: %w", err)
	}

	fields := f.fields()
	groups := assemble(rows, groupBy)
	results := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		r := GroupResult{
			Key:     g.key,
			Summary: summarize(g.samples, fields),
		}
		if rollup {
			r.Timestamps, r.Fields = rollupByDay(g, fields)
			r.RolledUp = true
		} else {
			r.Timestamps, r.Fields = flatten(g, fields)
		}
		results = append(results, r)
	}
	return results, nil
}

// window resolves the filter's time bounds and decides whether the
// day rollup applies. The DaysPast shortcut wins over explicit bounds;
// a filter with no bound at all gets the default window.
func (s *Service) window(f Filter) (*time.Time, *time.Time, bool) {
	switch {
	case f.DaysPast != nil:
		end := s.now()
		start := end.AddDate(0, 0, -*f.DaysPast)
		return &start, &end, *f.DaysPast == s.rollupWindowDays
	case f.Start != nil || f.End != nil:
		return f.Start, f.End, false
	default:
		end := s.now()
		start := end.AddDate(0, 0, -s.rollupWindowDays)
		return &start, &end, true
	}
}
