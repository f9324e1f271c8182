package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"premiere/internal/api"
	"premiere/internal/daemonrun"
	"premiere/internal/preflight"
)

const statusProbeTimeout = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, alert store and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := "daemon API"
			status, err := remoteStatus(cmd.Context(), api.NewClient(cfg.API.Bind, cfg.API.Token))
			if err != nil {
				source = "local store"
				err = ctx.withComponents(func(c *daemonrun.Components) error {
					local := api.FromDaemonStatus(c.Daemon.Status(cmd.Context()))
					status = &local
					return nil
				})
				if err != nil {
					return err
				}
			}

			p := newStatusPrinter(cmd.OutOrStdout())
			printStatus(p, status, source)
			if skipChecks {
				return nil
			}
			p.blank()
			printChecks(p, preflight.RunAll(cmd.Context(), cfg))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip dependency checks")
	return cmd
}

func remoteStatus(ctx context.Context, client *api.Client) (*api.Status, error) {
	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()
	return client.Status(probeCtx)
}

func printStatus(p *statusPrinter, status *api.Status, source string) {
	p.section("Daemon")
	if status.Running {
		p.line("Daemon", statusOK, "running")
	} else {
		p.line("Daemon", statusWarn, "not running")
	}
	p.line("Source", statusInfo, source)
	if status.NextRun != "" {
		p.line("Next run", statusInfo, status.NextRun)
	}
	p.line("Cycle running", statusInfo, yesNo(status.CycleRunning))
	p.line("Deliverer", statusInfo, status.Deliverer)
	p.line("Database", statusInfo, status.DatabasePath)
	p.line("Lock file", statusInfo, status.LockFilePath)

	p.blank()
	p.section("Alerts")
	p.line("Total", statusInfo, fmt.Sprintf("%d", status.Alerts.Total))
	p.line("Movies", statusInfo, fmt.Sprintf("%d", status.Alerts.Movies))
	p.line("Series", statusInfo, fmt.Sprintf("%d", status.Alerts.Series))
	p.line("Due today", statusInfo, fmt.Sprintf("%d", status.Alerts.Due))

	if status.LastCycle == nil {
		return
	}
	cycle := status.LastCycle
	p.blank()
	p.section("Last cycle")
	kind := statusOK
	switch {
	case cycle.Error != "":
		kind = statusError
	case cycle.Failed > 0 || cycle.DeliveryFailed > 0:
		kind = statusWarn
	}
	p.line("Cycle", kind, fmt.Sprintf("%s (%s)", cycle.AsOf, cycle.ID))
	p.line("Finished", statusInfo, cycle.FinishedAt)
	p.line("Processed", statusInfo, fmt.Sprintf("%d of %d due, %d failed", cycle.Processed, cycle.Due, cycle.Failed))
	p.line("Delivered", statusInfo, fmt.Sprintf("%d, %d failed", cycle.Delivered, cycle.DeliveryFailed))
	if cycle.Error != "" {
		p.line("Error", statusError, cycle.Error)
	}
}

func printChecks(p *statusPrinter, results []preflight.Result) {
	p.section("Checks")
	for _, result := range results {
		if result.Passed {
			p.line(result.Name, statusOK, result.Detail)
			continue
		}
		p.line(result.Name, statusError, result.Detail)
	}
}
