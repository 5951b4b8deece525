// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/etfscope/internal/config"
	"github.com/aristath/etfscope/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the metadata database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// etfs.db - ETF metadata and job run history
	db, err := database.New(database.Config{
		Path:    cfg.DBPath,
		Profile: database.ProfileStandard,
		Name:    "etfs",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize etfs database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate etfs database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return container, nil
}
