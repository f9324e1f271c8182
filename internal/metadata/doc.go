// Package metadata defines the contract between the release tracker and an
// external title catalogue.
//
// A Provider answers five questions: which titles match a query, what a title
// is (movie or series), when a movie is released per region, which episodes a
// series has, and when a given episode airs together with the key of the
// episode that follows it. Dates are returned as the provider's raw strings;
// callers parse them with package releasedate so unparseable values can be
// handled as data rather than errors.
//
// CachedProvider decorates any Provider with a bounded, expiring cache so a
// scheduling cycle that touches the same series for many users fetches each
// episode once.
package metadata
