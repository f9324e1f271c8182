package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"premiere/internal/api"
	"premiere/internal/daemon"
	"premiere/internal/daemonrun"
)

func newCycleCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one alert cycle and deliver its notifications",
		Long: "Run one alert cycle and deliver its notifications.\n\n" +
			"When a daemon holds the instance lock the cycle is requested over its HTTP API instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			date = strings.TrimSpace(date)
			asOf := time.Now().In(cfg.Location())
			if date != "" {
				asOf, err = time.ParseInLocation("2006-01-02", date, cfg.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
			}

			var cycle api.Cycle
			err = ctx.withComponents(func(c *daemonrun.Components) error {
				summary, err := c.Daemon.RunOnce(cmd.Context(), asOf)
				if err != nil {
					return err
				}
				cycle = api.FromCycleSummary(summary)
				return nil
			})
			if errors.Is(err, daemon.ErrLocked) {
				remote, remoteErr := api.NewClient(cfg.API.Bind, cfg.API.Token).RunCycle(cmd.Context(), date)
				if remoteErr != nil {
					return fmt.Errorf("daemon holds the lock and its API failed: %w", remoteErr)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cycle ran in the running daemon")
				cycle, err = *remote, nil
			}
			if err != nil {
				return err
			}
			printCycle(cmd.OutOrStdout(), cycle)
			if cycle.Error != "" {
				return errors.New(cycle.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Cycle date (YYYY-MM-DD, default today)")
	return cmd
}

func printCycle(out io.Writer, cycle api.Cycle) {
	fmt.Fprintf(out, "Cycle %s for %s\n", cycle.ID, cycle.AsOf)
	fmt.Fprintf(out, "  Due: %d  Processed: %d  Skipped: %d  Failed: %d\n", cycle.Due, cycle.Processed, cycle.Skipped, cycle.Failed)
	fmt.Fprintf(out, "  Delivered: %d  Delivery failures: %d\n", cycle.Delivered, cycle.DeliveryFailed)
}
