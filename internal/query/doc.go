// Package query assembles stored readings into grouped, index-aligned
// time series and reduces them to statistics.
//
// A query selects readings by time window, device or location, groups
// them by device or by location, and produces per group one timestamp
// sequence plus one value sequence per field, all the same length, with
// explicit nils where a timestamp has no value for a field. Summaries
// (min, max, rounded mean) are computed over the raw window. Queries
// for the default window are additionally re-bucketed into one entry
// per calendar day.
//
// Internally rows stay as {timestamp, field→value} records until the
// response boundary, where they are flattened into parallel arrays.
package query
