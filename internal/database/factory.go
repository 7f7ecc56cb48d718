package database

import (
	"fmt"
	"path/filepath"

	"lorebook/internal/config"
)

// DefaultFileName is the database file inside a project root.
const DefaultFileName = "lorebook.db"

// NewDatabaseFromConfig opens the database selected by cfg. The sqlite
// database lives in projectRoot unless cfg.Path overrides it.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, projectRoot string) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			if projectRoot == "" {
				return nil, fmt.Errorf("project root required for sqlite database")
			}
			path = filepath.Join(projectRoot, DefaultFileName)
		}
		return NewSQLiteDatabase(path)
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
