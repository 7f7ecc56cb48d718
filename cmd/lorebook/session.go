package main

import (
	"fmt"

	"lorebook/internal/app"
	"lorebook/internal/lore"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"log"},
	Short:   "Manage the campaign's session log",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN TITLE [TEXT...]",
	Short: `Add a session log entry ("-" reads the body from stdin)`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readText(args[2:])
		if err != nil {
			return err
		}
		return withCampaign("AddLog", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			e, err := svc.AddLog(id, args[1], body)
			if err != nil {
				return err
			}
			fmt.Printf("Added log entry %s (%s)\n", e.Title, e.ID)
			return nil
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN",
	Aliases: []string{"list"},
	Short:   "List session log entries",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return withCampaign("ListLogs", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			entries, err := svc.ListLogs(id)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No log entries.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %s\n", e.ID, e.CreatedAt.Format("2006-01-02"), e.Title)
				if verbose && e.Body != "" {
					fmt.Printf("    %s\n", e.Body)
				}
			}
			return nil
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "rm CAMPAIGN LOG_ID",
	Aliases: []string{"delete"},
	Short:   "Delete a session log entry",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("DeleteLog", args[0], func(_ *app.LoreApp, svc *lore.Service, _ string) error {
			return svc.DeleteLog(args[1])
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionListCmd.Flags().BoolP("verbose", "v", false, "Print entry bodies")
	sessionCmd.AddCommand(sessionDeleteCmd)

	rootCmd.AddCommand(sessionCmd)
}
