package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"premiere/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var opts logs.Options
	var userID, titleID string
	var cli bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := "premiere.log"
			if cli {
				name = "premiere-cli.log"
			}
			if userID != "" {
				opts.Match = append(opts.Match, userID)
			}
			if titleID != "" {
				opts.Match = append(opts.Match, titleID)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			return logs.Tail(runCtx, filepath.Join(cfg.Paths.LogDir, name), opts, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Only lines mentioning this user id")
	cmd.Flags().StringVar(&titleID, "title", "", "Only lines mentioning this title id")
	cmd.Flags().BoolVar(&cli, "cli", false, "Show the CLI log instead of the daemon log")
	return cmd
}
