// Package transport defines shared plumbing consumed by the camera protocol
// adapters and the dispatcher.
//
// Key responsibilities:
//   - Context helpers that stamp action IDs, command names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform across RTSP, CGI, and helper-tool calls.
//
// Use these helpers when wiring new command handlers so operational behaviour
// (error handling, observability) stays consistent across the engine.
package transport
