package main

import (
	"encoding/json"
	"os"

	"lorebook/internal/app"
	"lorebook/internal/lore"

	"github.com/spf13/cobra"
)

var mapCmd = &cobra.Command{
	Use:   "map CAMPAIGN",
	Short: "Print the campaign's place map",
	Long: `Print the campaign's place map.

Each place is a "node" row with its parent, depth, subtree size and layout
position. "edge" rows connect places: solid for containment, dashed for
links between places.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON {
			return withApp("PlaceMap", func(a *app.LoreApp) error {
				return a.RenderMap(os.Stdout, args[0])
			})
		}
		return withCampaign("PlaceMap", args[0], func(_ *app.LoreApp, svc *lore.Service, id string) error {
			m, err := svc.PlaceMap(id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		})
	},
}

func init() {
	mapCmd.Flags().Bool("json", false, "Print the map as JSON")
	rootCmd.AddCommand(mapCmd)
}
