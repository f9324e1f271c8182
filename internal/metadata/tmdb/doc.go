// Package tmdb implements metadata.Provider on top of The Movie Database API.
//
// Title keys are "movie-<id>" and "tv-<id>"; episode keys are
// "tv-<id>-s<season>e<episode>". Requests are retried with backoff on network
// errors, rate limiting, and 5xx responses.
package tmdb
