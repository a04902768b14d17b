// Package reading implements the telemetry merge core.
//
// Measurements arrive one field per message. Each message carries a
// device id, a timestamp and a single value; the pair (device id,
// timestamp) keys a reading, and fields accumulate onto it as messages
// for the same key arrive in any order. A later message for a field that
// is already set replaces it (last-writer-wins per field).
//
// Merging is safe under concurrency: the Store's per-field upsert is a
// single atomic statement, and the Merger serialises whole merges per
// key with striped locks. Two stores exist, SQLite-backed for the
// service and in-memory for tests.
package reading
