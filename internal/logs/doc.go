// Package logs reads the daemon's rotated log file for the CLI.
//
// Tail returns the last lines of a file and, when following, polls for
// appended lines. A file that shrinks between polls is treated as rotated and
// re-read from the start.
package logs
