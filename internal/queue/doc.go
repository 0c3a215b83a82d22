// Package queue persists camera actions in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, stuck-action recovery, and the status transitions that mirror the
// public action enum. Actions capture the command name and its JSON additions
// payload so handlers can run without additional state.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for action semantics; when
// you add new statuses or columns, update schema.sql and bump schemaVersion.
package queue
