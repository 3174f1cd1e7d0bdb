// Package sqlite provides a SQLite-backed implementation of the
// conversation store port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.lenden/data/conversations.db
//
// # Thread Safety
//
// All operations are thread-safe. SQLite in WAL mode provides database-level
// locking; on top of that, appends within a session are serialised by a
// per-session mutex so concurrent requests on the same session cannot lose
// or interleave turns.
package sqlite
