// Package alerts persists pending release alerts in SQLite.
//
// A Record is keyed by (user, title) and stores the next date on which the
// scheduler must look at it. EpisodeID is empty for movie alerts and set for
// series alerts; it is the only movie/series discriminator.
//
// Every mutation after creation is conditional on the record's revision so two
// processes working on the same record cannot both apply a change: the loser
// receives ErrConflict and skips the record. Stored release dates never move
// backwards; Update keeps the later of the stored and proposed dates.
//
// Schema changes are goose migrations embedded from migrations/.
package alerts
