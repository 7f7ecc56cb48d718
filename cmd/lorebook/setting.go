package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"lorebook/internal/app"

	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Manage project settings",
	Long: `Manage project settings stored in the database.

Values are JSON. The "logging" setting controls the log file level,
e.g. lorebook setting set logging '{"level":"debug"}'.`,
}

var settingGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a setting's value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("GetSetting", func(a *app.LoreApp) error {
			var raw json.RawMessage
			found, err := a.Service().GetSetting(args[0], &raw)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("setting %q is not set", args[0])
			}
			fmt.Println(string(raw))
			return nil
		})
	},
}

var settingSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Store a setting (VALUE that is not JSON is stored as a string)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("SetSetting", func(a *app.LoreApp) error {
			value := strings.TrimSpace(args[1])
			if json.Valid([]byte(value)) {
				return a.Service().SetRawSetting(args[0], json.RawMessage(value))
			}
			return a.Service().SetSetting(args[0], args[1])
		})
	},
}

var settingDeleteCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"delete"},
	Short:   "Delete a setting",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("DeleteSetting", func(a *app.LoreApp) error {
			return a.Service().DeleteSetting(args[0])
		})
	},
}

var settingListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListSettings", func(a *app.LoreApp) error {
			settings, err := a.Service().ListSettings()
			if err != nil {
				return err
			}
			if len(settings) == 0 {
				fmt.Println("No settings.")
				return nil
			}
			for _, st := range settings {
				fmt.Printf("%-20s  %s\n", st.Name, st.Value)
			}
			return nil
		})
	},
}

func init() {
	settingCmd.AddCommand(settingGetCmd)
	settingCmd.AddCommand(settingSetCmd)
	settingCmd.AddCommand(settingDeleteCmd)
	settingCmd.AddCommand(settingListCmd)

	rootCmd.AddCommand(settingCmd)
}
