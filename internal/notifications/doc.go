// Package notifications delivers alert messages to users.
//
// A Deliverer sends one HTML-formatted message to one user. The channel is
// selected by notifications.channel in config.toml: Telegram bot messages,
// per-user ntfy topics (message converted to plain text), or log-only output
// for setups without a chat integration. Every transport retries transient
// failures; DeliverAll fans a batch out over a bounded worker pool and
// reports per-message outcomes without aborting on the first failure.
package notifications
