// Package influxdb wraps the InfluxDB v2 client for the optional
// reading archive.
//
// The primary store is SQLite; this client mirrors merged readings into
// a time-series bucket for long-horizon dashboards. Writes use the
// blocking API so the archive pipeline can observe failures and trip
// its circuit breaker.
package influxdb
