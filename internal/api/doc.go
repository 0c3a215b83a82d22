// Package api defines transport-friendly views of actions and cameras
// plus the read-only services the IPC and HTTP surfaces are built on.
package api
