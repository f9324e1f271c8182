// Package services defines shared utilities consumed by the tracker, the
// metadata and delivery integrations, and the user-facing boundaries.
//
// Key responsibilities:
//   - Context helpers that stamp user IDs, title IDs, cycle IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (provider, store, delivery) so boundaries can pick a safe user message.
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform.
package services
