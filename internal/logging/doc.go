// Package logging assembles structured slog loggers and formatting helpers used
// across premiere.
//
// It owns the configurable console/JSON handlers, rotates file output, and
// exposes context-aware helpers so tracker code can tag log lines with user,
// title, and cycle identifiers. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
