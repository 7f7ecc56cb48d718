package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/lore"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage the images of an object",
}

var imageAddCmd = &cobra.Command{
	Use:   "add CAMPAIGN OBJECT FILE",
	Short: "Attach an image file to an object",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			base := filepath.Base(args[2])
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		src, err := filepath.Abs(args[2])
		if err != nil {
			return err
		}
		return withObject("AddImage", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			img, err := svc.AddImage(o.ID, src, name)
			if err != nil {
				return err
			}
			fmt.Printf("Added image %s (%s)\n", img.Name, img.ID)
			return nil
		})
	},
}

var imageListCmd = &cobra.Command{
	Use:     "ls CAMPAIGN OBJECT",
	Aliases: []string{"list"},
	Short:   "List the images of an object",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withObject("ListImages", args[0], args[1], func(_ *app.LoreApp, svc *lore.Service, o *model.Object) error {
			images, err := svc.ListImages(o.ID)
			if err != nil {
				return err
			}
			if len(images) == 0 {
				fmt.Println("No images.")
				return nil
			}
			for _, img := range images {
				marker := " "
				if img.IsDefault {
					marker = "*"
				}
				fmt.Printf("%s %s  %-20s  %s\n", marker, img.ID, img.Name, img.FilePath)
			}
			return nil
		})
	},
}

var imageDefaultCmd = &cobra.Command{
	Use:   "default CAMPAIGN IMAGE_ID",
	Short: "Make an image its object's default",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("SetDefaultImage", args[0], func(_ *app.LoreApp, svc *lore.Service, _ string) error {
			return svc.SetDefaultImage(args[1])
		})
	},
}

var imageDeleteCmd = &cobra.Command{
	Use:     "rm CAMPAIGN IMAGE_ID",
	Aliases: []string{"delete"},
	Short:   "Delete an image",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCampaign("DeleteImage", args[0], func(_ *app.LoreApp, svc *lore.Service, _ string) error {
			return svc.DeleteImage(args[1])
		})
	},
}

func init() {
	imageCmd.AddCommand(imageAddCmd)
	imageAddCmd.Flags().StringP("name", "n", "", "Display name (default: the file name)")
	imageCmd.AddCommand(imageListCmd)
	imageCmd.AddCommand(imageDefaultCmd)
	imageCmd.AddCommand(imageDeleteCmd)

	rootCmd.AddCommand(imageCmd)
}
