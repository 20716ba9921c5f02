package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/config"
	"github.com/bohm/libris/pkg/db"
)

// OptimizeCommand runs SQLite maintenance on the catalog database.
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Optimize the catalog database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "vacuum",
				Usage: "Also rebuild the database file (slower, reclaims space)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return optimizeDatabase(c.String("config"), c.Bool("vacuum"))
		},
	}
}

func optimizeDatabase(configPath string, vacuum bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	conn, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening catalog database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			fmt.Printf("Warning: failed to close database: %v\n", err)
		}
	}()

	fmt.Println("Analyzing...")
	if err := db.Analyze(conn); err != nil {
		return fmt.Errorf("analyzing database: %w", err)
	}

	fmt.Println("Optimizing...")
	if err := db.Optimize(conn); err != nil {
		return fmt.Errorf("optimizing database: %w", err)
	}

	fmt.Println("Checkpointing WAL...")
	if err := db.WALCheckpoint(conn); err != nil {
		return fmt.Errorf("checkpointing database: %w", err)
	}

	if vacuum {
		fmt.Println("Vacuuming...")
		if err := db.Vacuum(conn); err != nil {
			return fmt.Errorf("vacuuming database: %w", err)
		}
	}

	fmt.Println("Done")
	return nil
}
