package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/config"
	"github.com/bohm/libris/pkg/db"
)

// catalogEnv bundles everything a command needs to work with the catalog.
type catalogEnv struct {
	cfg   *config.Config
	conn  *sql.DB
	store *catalog.Store
	index *catalog.Index
}

func (e *catalogEnv) Close() {
	if err := e.conn.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// openCatalog loads the config, opens the migrated database and builds the
// store and index.
func openCatalog(configPath string) (*catalogEnv, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	conn, err := db.OpenMigrated(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	index, err := catalog.NewIndex(conn, cfg.AssetsDir())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &catalogEnv{
		cfg:   cfg,
		conn:  conn,
		store: catalog.NewStore(conn),
		index: index,
	}, nil
}

// parseType validates a publication type argument.
func parseType(arg string) (catalog.Type, error) {
	typ := catalog.Type(arg)
	if !typ.Valid() {
		return "", fmt.Errorf("unknown publication type %q (want books, magazines, datasheets or others)", arg)
	}
	return typ, nil
}
