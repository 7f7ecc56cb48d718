package main

import (
	"fmt"
	"sort"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var objectCmd = &cobra.Command{
	Use:     "object",
	Aliases: []string{"obj"},
	Short:   "Manage the objects of a campaign",
	Long: `Manage the objects of a campaign.

OBJECT may be an id, a path of names below the root such as "Town/Tavern",
or a name that is unique in the campaign. "/" is the root.`,
}

// withObject resolves both the campaign and the object arguments.
func withObject(operation, campaignRef, objectRef string, fn func(a *app.LoreApp, svc *lore.Service, o *model.Object) error) error {
	return withCampaign(operation, campaignRef, func(a *app.LoreApp, svc *lore.Service, campaignID string) error {
		o, err := a.ResolveObject(campaignID, objectRef)
		if err != nil {
			return err
		}
		return fn(a, svc, o)
	})
}

var objectTreeCmd = &cobra.Command{
	Use:   "tree CAMPAIGN",
	Short: "Print the object tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("ListObjects", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			objects, err := svc.ListObjects(id)
			if err != nil {
				return err
			}
			children := make(map[string][]*model.Object)
			var roots []*model.Object
			for _, o := range objects {
				if o.ParentID == nil {
					roots = append(roots, o)
					continue
				}
				children[*o.ParentID] = append(children[*o.ParentID], o)
			}
			var walk func(o *model.Object, depth int)
			walk = func(o *model.Object, depth int) {
				lock := ""
				if o.Locked {
					lock = " [locked]"
				}
				fmt.Printf("%s%s (%s)%s  %s\n", strings.Repeat("  ", depth), o.Name, o.Type, lock, o.ID)
				kids := children[o.ID]
				sort.Slice(kids, func(i, j int) bool {
					return strings.ToLower(kids[i].Name) < strings.ToLower(kids[j].Name)
				})
				for _, k := range kids {
					walk(k, depth+1)
				}
			}
			for _, r := range roots {
				walk(r, 0)
			}
			return nil
		})
	},
}

var objectListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN [OBJECT]",
	Aliases: []string{"list"},
	Short:   "List the children of an object (default: the root)",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := "/"
		if len(args) > 1 {
			ref = args[1]
		}
		return withObject("ListChildren", args[0], ref, func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			kids, err := svc.ListChildren(o.CampaignID, o.ID)
			if err != nil {
				return err
			}
			if len(kids) == 0 {
				fmt.Println("No children.")
				return nil
			}
			for _, k := range kids {
				fmt.Printf("%-8s  %-30s  %s\n", k.Type, k.Name, k.ID)
			}
			return nil
		})
	},
}

var objectNewCmd = &cobra.Command{
	Use:   "new CAMPAIGN NAME",
	Short: "Create an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentRef, _ := cmd.Flags().GetString("parent")
		objectType, _ := cmd.Flags().GetString("type")
		return withCampaign("CreateObject", args[0], func(a *app.LoreApp, svc *lore.Service, id string) error {
			parentID := ""
			if parentRef != "" {
				parent, err := a.ResolveObject(id, parentRef)
				if err != nil {
					return err
				}
				parentID = parent.ID
			}
			o, err := svc.CreateObject(id, parentID, args[1], objectType)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (%s)\n", o.Type, o.Name, o.ID)
			return nil
		})
	},
}

var objectShowCmd = &cobra.Command{
	Use:   "show CAMPAIGN OBJECT",
	Short: "Show an object with its links, images, notes and labels",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("ShowObject", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			p, err := svc.Preview(o.ID)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)  %s\n", p.Name, p.Type, p.ObjectID)
			if o.Locked {
				fmt.Println("Locked")
			}
			if p.Thumbnail != "" {
				fmt.Printf("Thumbnail: %s\n", p.Thumbnail)
			}
			if p.BlurHash != "" {
				fmt.Printf("BlurHash:  %s\n", p.BlurHash)
			}
			if p.Description != "" {
				fmt.Printf("\n%s\n", p.Description)
			}

			links, err := svc.OutgoingLinks(o.ID)
			if err != nil {
				return err
			}
			if len(links) > 0 {
				fmt.Println("\nLinks:")
				for _, l := range links {
					var names []string
					for _, t := range l.Targets {
						names = append(names, t.Name)
					}
					fmt.Printf("  [%s] %s -> %s\n", l.Tag.ID, l.Label, strings.Join(names, ", "))
				}
			}

			back, err := svc.Backlinks(o.ID)
			if err != nil {
				return err
			}
			if len(back) > 0 {
				fmt.Println("\nLinked from:")
				for _, b := range back {
					fmt.Printf("  %s (%s)\n", b.Name, b.ID)
				}
			}

			labels, err := svc.ObjectLabels(o.ID)
			if err != nil {
				return err
			}
			if len(labels) > 0 {
				var names []string
				for _, l := range labels {
					names = append(names, l.Name)
				}
				fmt.Printf("\nLabels: %s\n", strings.Join(names, ", "))
			}

			images, err := svc.ListImages(o.ID)
			if err != nil {
				return err
			}
			if len(images) > 0 {
				fmt.Println("\nImages:")
				for _, img := range images {
					def := ""
					if img.IsDefault {
						def = " [default]"
					}
					fmt.Printf("  %s  %s%s\n", img.ID, img.Name, def)
				}
			}

			notes, err := svc.ListNotes(o.ID)
			if err != nil {
				return err
			}
			if len(notes) > 0 {
				fmt.Println("\nNotes:")
				for _, n := range notes {
					fmt.Printf("  %s  %s\n", n.ID, n.Body)
				}
			}
			return nil
		})
	},
}

var objectRenameCmd = &cobra.Command{
	Use:   "rename CAMPAIGN OBJECT NAME",
	Short: "Rename an object",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("RenameObject", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			if err := svc.Rename(o.ID, args[2]); err != nil {
				return err
			}
			fmt.Printf("Renamed %s to %s\n", o.Name, args[2])
			return nil
		})
	},
}

var objectTypeCmd = &cobra.Command{
	Use:   "type CAMPAIGN OBJECT TYPE",
	Short: "Change an object's type (Place, Person, Lore, Other)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("SetType", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			return svc.SetType(o.ID, args[2])
		})
	},
}

func lockCommand(use, short string, locked bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CAMPAIGN OBJECT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject("SetLocked", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
				return svc.SetLocked(o.ID, locked)
			})
		},
	}
}

var objectMoveCmd = &cobra.Command{
	Use:   "mv CAMPAIGN OBJECT NEW_PARENT",
	Short: "Move an object under another parent",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("MoveObject", args[0], args[1], func(a *app.LoreApp, svc *lore.Service, o *model.Object) error {
			parent, err := a.ResolveObject(o.CampaignID, args[2])
			if err != nil {
				return err
			}
			if err := svc.Move(o.ID, parent.ID); err != nil {
				return err
			}
			fmt.Printf("Moved %s under %s\n", o.Name, parent.Name)
			return nil
		})
	},
}

var objectDeleteCmd = &cobra.Command{
	Use:     "rm CAMPAIGN OBJECT",
	Aliases: []string{"delete"},
	Short:   "Delete an object and everything below it",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("DeleteObject", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			n, err := svc.DeleteCascade(o.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d object(s)\n", n)
			return nil
		})
	},
}

var objectDescribeCmd = &cobra.Command{
	Use:   "describe CAMPAIGN OBJECT TEXT...",
	Short: `Replace an object's description ("-" reads stdin)`,
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args[2:])
		if err != nil {
			return err
		}
		return withObject("UpdateDescription", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			return svc.UpdateDescription(o.ID, text)
		})
	},
}

func init() {
	objectCmd.AddCommand(objectTreeCmd)
	objectCmd.AddCommand(objectListCmd)
	objectCmd.AddCommand(objectNewCmd)
	objectNewCmd.Flags().StringP("parent", "p", "", "Parent object (default: the root)")
	objectNewCmd.Flags().StringP("type", "t", "Other", "Object type: Place, Person, Lore or Other")
	objectCmd.AddCommand(objectShowCmd)
	objectCmd.AddCommand(objectRenameCmd)
	objectCmd.AddCommand(objectTypeCmd)
	objectCmd.AddCommand(lockCommand("lock", "Lock an object against edits", true))
	objectCmd.AddCommand(lockCommand("unlock", "Unlock an object", false))
	objectCmd.AddCommand(objectMoveCmd)
	objectCmd.AddCommand(objectDeleteCmd)
	objectCmd.AddCommand(objectDescribeCmd)

	rootCmd.AddCommand(objectCmd)
}
