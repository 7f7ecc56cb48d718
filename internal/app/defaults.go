package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that move lorebook's files away from the home
// directory, e.g. for a shared campaign folder or tests.
const (
	EnvConfigPath = "LOREBOOK_CONFIG_PATH"
	EnvHome       = "LOREBOOK_HOME"
)

// GetDefaults returns the locations used before a config file exists:
//   - config_path: $LOREBOOK_CONFIG_PATH or ~/.config/lorebook.toml
//   - base_dir: $LOREBOOK_HOME or ~/.local/share/lorebook
//   - log_dir: <base_dir>/log, where lorebook.log is appended
//   - project_root: <base_dir>/project, holding lorebook.db and campaign images
//
// `lorebook config init` writes these into a new config file.
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome(EnvConfigPath, ".config", "lorebook.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome(EnvHome, ".local", "share", "lorebook")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":  configPath,
		"base_dir":     baseDir,
		"log_dir":      filepath.Join(baseDir, "log"),
		"project_root": filepath.Join(baseDir, "project"),
	}, nil
}

// envOrHome returns the value of env when set, otherwise elem joined onto the
// user's home directory.
func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for %s: %w", env, err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
