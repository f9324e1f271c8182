// Package tracker implements the release-tracking state machine.
//
// The Resolver decides whether a title is a movie or a series and finds its
// next unreleased date. The Advancer moves a series record from one episode
// to the next. The Scheduler runs one cycle over every due record and returns
// the notifications to deliver. Service is the surface used by the HTTP API
// and the CLI; it never lets a provider or parse failure escape as anything
// other than a user-facing message or a classified error.
package tracker
