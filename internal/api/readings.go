package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aquasense/aquasense-core/internal/query"
	"github.com/aquasense/aquasense-core/internal/reading"
)

// handleReadingsByDevice returns assembled series grouped by device.
func (s *Server) handleReadingsByDevice(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, query.GroupByDevice)
}

// handleReadingsByLocation returns assembled series grouped by location,
// with summary statistics and the default-window day rollup.
func (s *Server) handleReadingsByLocation(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, query.GroupByLocation)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, groupBy query.GroupBy) {
	filter, err := parseFilter(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	start := time.Now()
	results, err := s.query.Run(r.Context(), filter, groupBy)
	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(string(groupBy)).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, query.ErrInvalidFilter) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("readings query failed", "group_by", groupBy, "error", err)
		writeInternalError(w, "failed to query readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"groups": results,
		"count":  len(results),
	})
}

// parseFilter builds a query filter from request parameters:
// start/end (RFC 3339), days_past, device_id, location and fields
// (comma-separated field names).
func parseFilter(r *http.Request) (query.Filter, error) {
	var f query.Filter
	q := r.URL.Query()

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("start must be RFC 3339")
		}
		f.Start = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("end must be RFC 3339")
		}
		f.End = &t
	}
	if raw := q.Get("days_past"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("days_past must be an integer")
		}
		f.DaysPast = &days
	}
	if id := q.Get("device_id"); id != "" {
		f.DeviceID = &id
	}
	if loc := q.Get("location"); loc != "" {
		f.Location = &loc
	}
	if raw := q.Get("fields"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			field, err := reading.ParseField(strings.TrimSpace(name))
			if err != nil {
				return f, errors.New("unrecognised field: " + name)
			}
			f.Fields = append(f.Fields, field)
		}
	}

	return f, nil
}
