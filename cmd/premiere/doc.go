// Package main hosts the premiere CLI entrypoint and command graph.
//
// The Cobra command tree covers the daemon (serve), the interactive alert
// operations (search, enable, disable, alerts), manual cycles, status,
// notification checks and configuration scaffolding. Commands that mutate
// alerts open the store directly; cycle and status talk to a running daemon
// over its HTTP API when the instance lock is held.
package main
