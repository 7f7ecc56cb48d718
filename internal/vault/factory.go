package vault

import (
	"context"
	"fmt"

	"lorebook/internal/config"
	"lorebook/internal/lore"
)

// NewVaultFromConfig creates the archive vault selected by cfg.Type.
func NewVaultFromConfig(cfg config.VaultConfig) (lore.Vault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(cfg.Name), nil
	case "s3":
		v, err := NewS3Vault(context.Background(), cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_vault_root to be set")
		}
		v, err := NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "":
		return nil, fmt.Errorf("no vault configured")
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
