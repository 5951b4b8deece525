// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/etfscope/internal/config"
	"github.com/aristath/etfscope/internal/modules/etfinfo"
	"github.com/aristath/etfscope/internal/modules/prices"
	"github.com/aristath/etfscope/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the price store and the database repositories
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database is not initialized")
	}

	// Per-symbol CSV files
	container.Store = prices.NewCSVStore(cfg.DataDir, log)

	// ETF metadata (sector, name, row counts)
	container.ETFInfoRepo = etfinfo.NewRepository(container.DB.Conn(), log)

	// Job run history
	container.RunRepo = scheduler.NewRunRepository(container.DB.Conn())

	log.Info().Msg("Repositories initialized")
	return nil
}
