// Package config loads, normalizes, and validates premiere configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and TELEGRAM_BOT_TOKEN. The Config type centralizes every knob
// the daemon and CLI need: where alert state lives, how the metadata provider
// is reached, when the daily cycle runs, and how notifications are delivered.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a parsed scheduler location, and clear validation errors.
package config
