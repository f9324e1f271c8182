package preflight

import (
	"context"
	"strings"

	"premiere/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckDirectories verifies the state and log directories.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("State directory", cfg.Paths.StateDir)}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)
	results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))

	switch cfg.Notifications.Channel {
	case "telegram":
		results = append(results, CheckTelegram(ctx, cfg.Notifications.TelegramBaseURL, cfg.Notifications.TelegramToken))
	case "ntfy":
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyServer))
	}
	return results
}
