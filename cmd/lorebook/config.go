package main

import (
	"fmt"
	"path/filepath"

	"lorebook/internal/app"
	"lorebook/internal/config"
	"lorebook/internal/vault"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		project, _ := cmd.Flags().GetString("project")
		if project == "" {
			project = defaults["project_root"]
		}
		project, err = filepath.Abs(project)
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}

		cfg := config.NewConfig(project, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Project: %s\n", project)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Project:    %s\n", cfg.ProjectRoot)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Thumbnails: %dpx\n", cfg.ThumbnailSize)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		if cfg.Vault.Type == "" {
			fmt.Printf("Vault:      (none)\n")
		} else {
			fmt.Printf("Vault:      %s (%s)\n", cfg.Vault.Name, cfg.Vault.Type)
		}
		return nil
	},
}

var configProjectCmd = &cobra.Command{
	Use:   "project PATH",
	Short: "Switch to another project folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		project, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		cfg.ProjectRoot = project
		if err := config.Save(defaults["config_path"], cfg); err != nil {
			return err
		}
		fmt.Printf("Project: %s\n", project)
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vault",
}

var configVaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		v, err := vault.NewVaultFromConfig(cfg.Vault)
		if err != nil {
			return err
		}
		if err := v.ValidateSetup(); err != nil {
			return fmt.Errorf("vault %s: %w", cfg.Vault.Name, err)
		}
		fmt.Printf("Vault %s (%s) is ready\n", cfg.Vault.Name, cfg.Vault.Type)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("project", "", "Project folder (default: $LOREBOOK_HOME/project)")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configProjectCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultCheckCmd)

	rootCmd.AddCommand(configCmd)
}
