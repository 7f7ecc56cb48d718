package main

import (
	"fmt"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage campaign labels",
}

// findLabel matches ref against label ids, then names ignoring case.
func findLabel(svc *lore.Service, campaignID, ref string) (*model.Label, error) {
	labels, err := svc.ListLabels(campaignID)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if l.ID == ref {
			return l, nil
		}
	}
	for _, l := range labels {
		if strings.EqualFold(l.Name, strings.TrimSpace(ref)) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("label %q: %w", ref, lore.ErrNotFound)
}

var labelNewCmd = &cobra.Command{
	Use:   "new CAMPAIGN NAME",
	Short: "Create a label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("CreateLabel", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			l, err := svc.CreateLabel(id, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Created label %s (%s)\n", l.Name, l.ID)
			return nil
		})
	},
}

var labelListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN",
	Aliases: []string{"list"},
	Short:   "List labels",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("ListLabels", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			labels, err := svc.ListLabels(id)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				fmt.Println("No labels.")
				return nil
			}
			for _, l := range labels {
				fmt.Printf("%s  %s\n", l.ID, l.Name)
			}
			return nil
		})
	},
}

func attachCommand(use, short, operation string, attach bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CAMPAIGN OBJECT LABEL",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(operation, args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
				l, err := findLabel(svc, o.CampaignID, args[2])
				if err != nil {
					return err
				}
				if attach {
					return svc.AttachLabel(o.ID, l.ID)
				}
				return svc.DetachLabel(o.ID, l.ID)
			})
		},
	}
}

func init() {
	labelCmd.AddCommand(labelNewCmd)
	labelCmd.AddCommand(labelListCmd)
	labelCmd.AddCommand(attachCommand("attach", "Attach a label to an object", "AttachLabel", true))
	labelCmd.AddCommand(attachCommand("detach", "Detach a label from an object", "DetachLabel", false))

	rootCmd.AddCommand(labelCmd)
}
