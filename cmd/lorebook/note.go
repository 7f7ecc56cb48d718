package main

import (
	"fmt"

	"lorebook/internal/app"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes on objects",
}

var noteAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN OBJECT TEXT...",
	Short: `Add a note to an object ("-" reads stdin)`,
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readText(args[2:])
		if err != nil {
			return err
		}
		return withObject("AddNote", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			n, err := svc.AddNote(o.ID, body)
			if err != nil {
				return err
			}
			fmt.Printf("Added note %s\n", n.ID)
			return nil
		})
	},
}

var noteListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN OBJECT",
	Aliases: []string{"list"},
	Short:   "List the notes of an object",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("ListNotes", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			notes, err := svc.ListNotes(o.ID)
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Println("No notes.")
				return nil
			}
			for _, n := range notes {
				fmt.Printf("%s  %s  %s\n", n.ID, n.UpdatedAt.Format("2006-01-02 15:04"), n.Body)
			}
			return nil
		})
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit CAMPAIGN NOTE_ID TEXT...",
	Short: `Replace a note's text ("-" reads stdin)`,
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readText(args[2:])
		if err != nil {
			return err
		}
		return withCampaign("UpdateNote", args[0], func(_ *app.LoreApp, svc *lore.Service, _ string) error {
			return svc.UpdateNote(args[1], body)
		})
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:     "rm CAMPAIGN NOTE_ID",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("DeleteNote", args[0], func(_ *app.LoreApp, svc *lore.Service, _ string) error {
			return svc.DeleteNote(args[1])
		})
	},
}

func init() {
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteDeleteCmd)

	rootCmd.AddCommand(noteCmd)
}
