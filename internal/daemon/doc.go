// Package daemon coordinates the long-running premiere process.
//
// A Daemon holds a flock-based single-instance lock on the state directory,
// wakes once a day at the configured run time, runs a scheduling cycle, and
// fans the resulting notifications out to the configured deliverer. Manual
// cycles (API or CLI) share the same cycle lock so two passes never overlap.
//
// Keep orchestration here: release resolution and record advancement live in
// the tracker package, delivery transports in notifications.
package daemon
