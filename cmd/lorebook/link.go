package main

import (
	"fmt"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage [[Label|tag]] links inside descriptions",
}

var linkAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN OBJECT LABEL",
	Short: "Append a link to an object's description",
	Long: `Append a link token to an object's description.

Objects in the campaign whose name matches LABEL become the link's targets.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("AppendLink", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			tag, err := svc.AppendLink(o.ID, args[2])
			if err != nil {
				return err
			}
			targets, err := svc.ResolveTag(tag.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s with %d target(s)\n", lore.FormatToken(args[2], tag.ID), len(targets))
			return nil
		})
	},
}

var linkListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN OBJECT",
	Aliases: []string{"list"},
	Short:   "List the links of an object",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("OutgoingLinks", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			links, err := svc.OutgoingLinks(o.ID)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Println("No links.")
				return nil
			}
			for _, l := range links {
				var targets []string
				for _, t := range l.Targets {
					targets = append(targets, fmt.Sprintf("%s (%s)", t.Name, t.ID))
				}
				fmt.Printf("%s\t%s\t%s\n", l.Tag.ID, l.Label, strings.Join(targets, ", "))
			}
			return nil
		})
	},
}

var linkBacklinksCmd = &cobra.Command{
	Use:   "backlinks CAMPAIGN OBJECT",
	Short: "List the objects that link to an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("Backlinks", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			objects, err := svc.Backlinks(o.ID)
			if err != nil {
				return err
			}
			if len(objects) == 0 {
				fmt.Println("No backlinks.")
				return nil
			}
			for _, b := range objects {
				fmt.Printf("%-8s  %-30s  %s\n", b.Type, b.Name, b.ID)
			}
			return nil
		})
	},
}

var linkTargetCmd = &cobra.Command{
	Use:   "target",
	Short: "Add or remove targets of a link tag",
}

func targetCommand(use, short, operation string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CAMPAIGN TAG OBJECT",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(operation, args[0], args[2], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
				if add {
					return svc.AddTagLink(args[1], o.ID)
				}
				return svc.RemoveTagLink(args[1], o.ID)
			})
		},
	}
}

func init() {
	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkBacklinksCmd)
	linkTargetCmd.AddCommand(targetCommand("add", "Point a link tag at another object", "AddTagLink", true))
	linkTargetCmd.AddCommand(targetCommand("rm", "Remove an object from a link tag's targets", "RemoveTagLink", false))
	linkCmd.AddCommand(linkTargetCmd)

	rootCmd.AddCommand(linkCmd)
}
