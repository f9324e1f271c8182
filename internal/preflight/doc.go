// Package preflight provides readiness checks for the directories and
// external services premiere depends on.
//
// These checks run in two contexts:
//   - The daemon runtime calls CheckDirectories before opening the alert
//     store and refuses to start when the state or log directory is unusable.
//   - The CLI "premiere status" command calls RunAll to display directory,
//     TMDB and notification channel health.
//
// Each service check is gated by its config: an unused channel is skipped.
package preflight
