package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/config"
	"github.com/bohm/libris/pkg/db"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize configuration and the catalog database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"))
		},
	}
}

func initConfig(configPath string) error {
	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return fmt.Errorf("building default config: %w", err)
	}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if err := os.MkdirAll(cfg.AssetsDir(), 0755); err != nil {
		return fmt.Errorf("creating assets directory: %w", err)
	}

	conn, err := db.OpenMigrated(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("initializing catalog database: %w", err)
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	fmt.Printf("Configuration initialized at %s\n", configPath)
	fmt.Printf("Catalog database created at %s\n", cfg.DatabasePath())
	return nil
}
