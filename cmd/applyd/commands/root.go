// Package commands implements the applyd CLI.
package commands

import (
	"database/sql"

	"github.com/applyd/applyd/config"
	"github.com/applyd/applyd/db"
	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/logger"
	"github.com/applyd/applyd/store"
)

// Global flags bound by main.
var (
	ConfigPath string
	JSONLog    bool
)

func loadConfig() (*config.Config, error) {
	if ConfigPath != "" {
		return config.LoadFromFile(ConfigPath)
	}
	return config.Load()
}

// openStore opens the configured database, applies pending migrations
// and wraps it in a store. The caller closes the returned handle.
func openStore(cfg *config.Config) (*sql.DB, *store.Store, error) {
	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, nil, errors.Wrap(err, "migrate database")
	}
	return database, store.NewStore(database), nil
}
