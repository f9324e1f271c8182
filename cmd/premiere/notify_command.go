package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"premiere/internal/daemonrun"
	"premiere/internal/tracker"
)

const testNotificationMessage = "<b>premiere</b>\n\nTest notification. Release alerts will arrive here."

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification channel utilities",
	}
	notifyCmd.AddCommand(newNotifyTestCommand(ctx))
	notifyCmd.AddCommand(newNotifyHelpCommand(ctx))
	return notifyCmd
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireFlag("user", userID)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemonrun.Components) error {
				if err := c.Deliverer.Deliver(cmd.Context(), user, testNotificationMessage); err != nil {
					return fmt.Errorf("send test notification via %s: %w", c.Deliverer.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", c.Deliverer.Name())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Recipient user id")
	return cmd
}

func newNotifyHelpCommand(ctx *commandContext) *cobra.Command {
	var userID, botName string

	cmd := &cobra.Command{
		Use:   "help",
		Short: "Send the usage guide to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireFlag("user", userID)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemonrun.Components) error {
				text := tracker.HelpText(strings.TrimSpace(botName))
				if err := c.Deliverer.Deliver(cmd.Context(), user, text); err != nil {
					return fmt.Errorf("send help via %s: %w", c.Deliverer.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Help sent via %s\n", c.Deliverer.Name())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Recipient user id")
	cmd.Flags().StringVar(&botName, "bot", "premierebot", "Bot name used in the guide")
	return cmd
}
