package main

import (
	"fmt"

	"lorebook/internal/app"
	"lorebook/internal/lore"

	"github.com/spf13/cobra"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

var campaignNewCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("CreateCampaign", func(a *app.LoreApp) error {
			c, err := a.Service().CreateCampaign(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created campaign %s (%s)\n", c.Name, c.ID)
			return nil
		})
	},
}

var campaignListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListCampaigns", func(a *app.LoreApp) error {
			campaigns, err := a.Service().ListCampaigns()
			if err != nil {
				return err
			}
			if len(campaigns) == 0 {
				fmt.Println("No campaigns.")
				return nil
			}
			for _, c := range campaigns {
				fmt.Printf("%s  %-30s  %s\n", c.ID, c.Name, c.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

var campaignRenameCmd = &cobra.Command{
	Use:   "rename CAMPAIGN NAME",
	Short: "Rename a campaign and its root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("RenameCampaign", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			if err := svc.RenameCampaign(id, args[1]); err != nil {
				return err
			}
			fmt.Printf("Renamed campaign to %s\n", args[1])
			return nil
		})
	},
}

var campaignDeleteCmd = &cobra.Command{
	Use:     "rm CAMPAIGN",
	Aliases: []string{"delete"},
	Short:   "Delete a campaign",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withApp("DeleteCampaign", func(a *app.LoreApp) error {
			c, err := a.ResolveCampaign(args[0])
			if err != nil {
				return err
			}
			if !yes && !askYesNo(fmt.Sprintf("Delete campaign %q?", c.Name)) {
				return fmt.Errorf("not deleted")
			}
			if err := a.Service().DeleteCampaign(c.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted campaign %s\n", c.Name)
			return nil
		})
	},
}

var campaignCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stale link data across all campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("CleanupLinkData", func(a *app.LoreApp) error {
			svc := a.Service()
			report, err := svc.CleanupLinkData()
			if err != nil {
				return err
			}
			backfilled := svc.BackfillLinkTagOwners()
			fmt.Printf("Orphaned links:    %d\n", report.OrphanedLinks)
			fmt.Printf("Dead-target links: %d\n", report.DeadTargetLinks)
			fmt.Printf("Empty tags:        %d\n", report.EmptyTags)
			fmt.Printf("Unreferenced tags: %d\n", report.UnreferencedTags)
			fmt.Printf("Owners backfilled: %d\n", backfilled)
			return nil
		})
	},
}

func init() {
	campaignCmd.AddCommand(campaignNewCmd)
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignRenameCmd)
	campaignCmd.AddCommand(campaignDeleteCmd)
	campaignDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	campaignCmd.AddCommand(campaignCleanCmd)

	rootCmd.AddCommand(campaignCmd)
}
