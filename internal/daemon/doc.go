// Package daemon coordinates the dispatcher, discovery monitor, and the
// HTTP status API behind a single-instance file lock.
package daemon
