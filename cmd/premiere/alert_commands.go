package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"premiere/internal/alerts"
	"premiere/internal/daemonrun"
	"premiere/internal/metadata"
	"premiere/internal/notifications"
	"premiere/internal/tracker"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies and series by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withComponents(func(c *daemonrun.Components) error {
				results, err := c.Service.Search(cmd.Context(), strings.TrimSpace(userID), query)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintf(out, "No titles match %q\n", query)
					return nil
				}
				fmt.Fprintln(out, renderSearchResults(results))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id used to mark tracked titles")
	return cmd
}

func renderSearchResults(results []tracker.SearchResult) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.Summary.ID,
			result.Summary.Title,
			yearRange(result.Summary),
			string(result.Summary.Kind),
			searchStatus(result),
		})
	}
	return renderTable([]column{
		{Header: "ID"},
		{Header: "Title", MaxWidth: 48},
		{Header: "Year", Align: alignRight},
		{Header: "Kind"},
		{Header: "Status"},
	}, rows)
}

func yearRange(summary metadata.TitleSummary) string {
	switch {
	case summary.Year == 0:
		return "n/a"
	case summary.EndYear > 0 && summary.EndYear != summary.Year:
		return fmt.Sprintf("%d-%d", summary.Year, summary.EndYear)
	default:
		return strconv.Itoa(summary.Year)
	}
}

func searchStatus(result tracker.SearchResult) string {
	if result.Note != "" {
		return result.Note
	}
	for _, action := range result.Actions {
		if action == tracker.ActionDisableAlert {
			return "Tracked"
		}
	}
	return "Available"
}

func newEnableCommand(ctx *commandContext) *cobra.Command {
	var userID, userName string

	cmd := &cobra.Command{
		Use:   "enable <title-id>",
		Short: "Enable a release alert for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireFlag("user", userID)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemonrun.Components) error {
				text, err := c.Service.Enable(cmd.Context(), user, strings.TrimSpace(userName), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id owning the alert")
	cmd.Flags().StringVarP(&userName, "name", "n", "", "Display name stored with the alert")
	return cmd
}

func newDisableCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "disable <title-id>",
		Short: "Disable a release alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireFlag("user", userID)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemonrun.Components) error {
				text, err := c.Service.Disable(cmd.Context(), user, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printMessage(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id owning the alert")
	return cmd
}

func newAlertsCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List a user's pending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireFlag("user", userID)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemonrun.Components) error {
				records, err := c.Service.Alerts(cmd.Context(), user)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					printMessage(out, tracker.MessageNoAlerts)
					return nil
				}
				fmt.Fprintln(out, renderAlerts(records, c))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id whose alerts to list")
	return cmd
}

func renderAlerts(records []alerts.Record, c *daemonrun.Components) string {
	loc := c.Config.Location()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		kind, episode := string(metadata.KindSeries), rec.EpisodeID
		if rec.IsMovie() {
			kind, episode = string(metadata.KindMovie), "-"
		}
		rows = append(rows, []string{
			rec.TitleID,
			rec.TitleName,
			kind,
			episode,
			rec.ReleaseDate.In(loc).Format("2006-01-02"),
		})
	}
	return renderTable([]column{
		{Header: "ID"},
		{Header: "Title", MaxWidth: 48},
		{Header: "Kind"},
		{Header: "Episode"},
		{Header: "Release"},
	}, rows)
}

// printMessage writes a chat-formatted reply as plain terminal text.
func printMessage(out io.Writer, message string) {
	text, _, err := notifications.PlainText(message)
	if err != nil {
		text = message
	}
	fmt.Fprintln(out, strings.TrimSpace(text))
}
