// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/etfscope/internal/config"
	"github.com/aristath/etfscope/internal/modules/ingestion"
	"github.com/aristath/etfscope/internal/reliability"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and schedules those with a configured schedule.
// Every job is returned, scheduled or not, so it can be triggered manually via the API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("container services are not initialized")
	}

	instances := &JobInstances{
		Refresh:     ingestion.NewRefreshJob(container.IngestionService),
		Maintenance: reliability.NewMaintenanceJob(container.DB, cfg.DataDir, log),
	}
	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays)
	}

	// Refresh of every stored ETF
	if cfg.RefreshSchedule != "" {
		if err := container.Scheduler.AddJob(cfg.RefreshSchedule, instances.Refresh); err != nil {
			return nil, fmt.Errorf("failed to register refresh job: %w", err)
		}
	}

	// Database health and disk space
	if cfg.MaintenanceSchedule != "" {
		if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.Maintenance); err != nil {
			return nil, fmt.Errorf("failed to register maintenance job: %w", err)
		}
	}

	// Data directory backup
	if instances.Backup != nil {
		if err := container.Scheduler.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	log.Info().
		Str("refresh", cfg.RefreshSchedule).
		Str("maintenance", cfg.MaintenanceSchedule).
		Str("backup", cfg.Backup.Schedule).
		Msg("Jobs registered")
	return instances, nil
}
