// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/etfscope/internal/clients/yahoo"
	"github.com/aristath/etfscope/internal/config"
	"github.com/aristath/etfscope/internal/modules/ingestion"
	"github.com/aristath/etfscope/internal/modules/signals"
	"github.com/aristath/etfscope/internal/reliability"
	"github.com/aristath/etfscope/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services on top of the repositories
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.Store == nil {
		return fmt.Errorf("container repositories are not initialized")
	}

	container.YahooClient = yahoo.NewClient(log)

	container.Aggregator = signals.NewAggregator(container.Store, cfg.Workers, log)

	container.IngestionService = ingestion.NewService(
		container.YahooClient,
		container.Store,
		container.ETFInfoRepo,
		cfg.Workers,
		log,
	)

	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup storage client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			s3Client,
			container.DB,
			cfg.DataDir,
			container.DB.Path(),
			log,
		)
	}

	container.Scheduler = scheduler.New(container.RunRepo, log)

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
