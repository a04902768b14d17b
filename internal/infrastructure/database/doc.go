// Package database provides SQLite connection management for AquaSense Core.
//
// It wraps database/sql with:
//   - WAL mode and busy-timeout pragmas for concurrent read/ingest access
//   - Embedded schema migrations (applied in version order, one
//     transaction per migration)
//   - Health checks and lifecycle management
//
// The store holds the device registry and the merged readings table;
// repositories in internal/device and internal/reading build on the
// *sql.DB exposed here.
package database
