package main

import (
	"fmt"
	"os"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/archive"
	"lorebook/internal/encryption"
	"lorebook/internal/model"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export CAMPAIGN",
	Short: "Export a campaign to a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		passphrase := ""
		if encrypt {
			p, err := readPassphrase(true)
			if err != nil {
				return err
			}
			passphrase = p
		}
		return withApp("Export", func(a *app.LoreApp) error {
			res, err := a.Export(args[0], out, passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d object(s), %d image(s) to %s\n", res.Objects, res.Images, res.Path)
			if res.Skipped > 0 {
				fmt.Printf("Skipped %d missing image file(s)\n", res.Skipped)
			}
			fmt.Printf("SHA-256: %s\n", res.Checksum)
			return nil
		})
	},
}

// isEncryptedFile reports whether path starts with an age header.
func isEncryptedFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	encrypted, _, err := encryption.Sniff(f)
	return encrypted, err
}

// confirmReplace asks before an import overwrites a live campaign.
func confirmReplace(yes bool) func(*model.Campaign) bool {
	return func(existing *model.Campaign) bool {
		if yes {
			return true
		}
		return askYesNo(fmt.Sprintf("Campaign %q already exists. Replace it?", existing.Name))
	}
}

func printImport(res *archive.ImportResult) {
	verb := "Imported"
	if res.Replaced {
		verb = "Replaced"
	}
	fmt.Printf("%s campaign %s (%s): %d object(s), %d image(s)\n",
		verb, res.Campaign.Name, res.Campaign.ID, res.Objects, res.Images)
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d unreadable image(s)\n", res.Skipped)
	}
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a campaign archive",
	Long: `Import a campaign archive written by export.

Object ids are regenerated. The campaign keeps its id, so importing an
archive of a campaign that already exists replaces it after confirmation.
The database is snapshotted to <project>/backups first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		encrypted, err := isEncryptedFile(args[0])
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		passphrase := ""
		if encrypted {
			if passphrase, err = readPassphrase(false); err != nil {
				return err
			}
		}
		return withApp("Import", func(a *app.LoreApp) error {
			res, err := a.Import(args[0], passphrase, confirmReplace(yes))
			if err != nil {
				return err
			}
			printImport(res)
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store and fetch campaign archives in the configured vault",
}

var backupPushCmd = &cobra.Command{
	Use:   "push CAMPAIGN",
	Short: "Export a campaign into the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		passphrase := ""
		if encrypt {
			p, err := readPassphrase(true)
			if err != nil {
				return err
			}
			passphrase = p
		}
		return withApp("Push", func(a *app.LoreApp) error {
			name, err := a.Push(args[0], passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Pushed %s\n", name)
			return nil
		})
	},
}

var backupPullCmd = &cobra.Command{
	Use:   "pull NAME",
	Short: "Import an archive from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		passphrase := ""
		if strings.HasSuffix(args[0], ".age") {
			p, err := readPassphrase(false)
			if err != nil {
				return err
			}
			passphrase = p
		}
		return withApp("Pull", func(a *app.LoreApp) error {
			res, err := a.Pull(args[0], passphrase, confirmReplace(yes))
			if err != nil {
				return err
			}
			printImport(res)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List archives in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListArchives", func(a *app.LoreApp) error {
			names, err := a.ListArchives()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No archives.")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: <campaign>-<timestamp>.zip)")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the archive with a passphrase")
	rootCmd.AddCommand(exportCmd)

	importCmd.Flags().BoolP("yes", "y", false, "Replace an existing campaign without asking")
	rootCmd.AddCommand(importCmd)

	backupPushCmd.Flags().Bool("encrypt", false, "Encrypt the archive with a passphrase")
	backupCmd.AddCommand(backupPushCmd)
	backupPullCmd.Flags().BoolP("yes", "y", false, "Replace an existing campaign without asking")
	backupCmd.AddCommand(backupPullCmd)
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)
}
