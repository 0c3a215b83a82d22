// Package registry persists the camera inventory in SQLite.
//
// Cameras are keyed by MAC address for upserts so discovery sweeps and manual
// imports converge on one row per physical device. Lookup helpers resolve
// dispatch targets by row id or MAC; only active cameras receive commands.
//
// The registry shares the database file with the action queue but owns its own
// table, schema version row, and connection.
package registry
