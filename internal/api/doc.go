// Package api exposes the tracker and daemon over HTTP.
//
// # Key Types
//
// Server: echo router with bearer-token auth, request ids, panic recovery and
// validator-backed request binding. Routes live under /api.
//
// Alert, SearchResult, Status, Cycle: transport DTOs for alert records,
// search matches, daemon status and cycle summaries.
//
// Client: a small HTTP client used by the CLI to reach a running daemon.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Every response is wrapped in the Envelope
// type so clients can read success, code and message without inspecting the
// payload. Timestamps use RFC3339 with milliseconds; release dates are
// calendar dates in the scheduler time zone.
package api
