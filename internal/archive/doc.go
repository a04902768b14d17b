// Package archive mirrors merged readings into InfluxDB on a
// best-effort basis. A bounded buffer decouples the mirror from
// ingestion and a circuit breaker stops hammering an unreachable
// server; dropped or skipped readings are not an error.
package archive
