package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/config"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the Guardian home directory and database",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	home := homeDir()
	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	cfgPath := configPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.Default(home)
		data, err := yaml.Marshal(map[string]any{
			"database": map[string]any{"path": cfg.Database.Path},
			"logging":  map[string]any{"level": cfg.Logging.Level, "format": cfg.Logging.Format},
			"audit": map[string]any{
				"retry_interval_seconds": cfg.Audit.RetryIntervalSeconds,
				"max_retry_attempts":     cfg.Audit.MaxRetryAttempts,
			},
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		cmd.Printf("Created %s\n", cfgPath)
	}

	dbPath := filepath.Join(home, "guardian.db")
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewMigrator(db).Migrate(cmd.Context()); err != nil {
		return err
	}

	cmd.Printf("Initialized Guardian at %s\n", home)
	return nil
}
