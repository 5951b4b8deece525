/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the HTTP server for access to services.
 */
package di

import (
	"github.com/aristath/etfscope/internal/clients/yahoo"
	"github.com/aristath/etfscope/internal/database"
	"github.com/aristath/etfscope/internal/modules/etfinfo"
	"github.com/aristath/etfscope/internal/modules/ingestion"
	"github.com/aristath/etfscope/internal/modules/prices"
	"github.com/aristath/etfscope/internal/modules/signals"
	"github.com/aristath/etfscope/internal/reliability"
	"github.com/aristath/etfscope/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Database
	DB *database.DB

	// Storage and repositories
	Store       *prices.CSVStore
	ETFInfoRepo *etfinfo.Repository
	RunRepo     *scheduler.RunRepository

	// Clients
	YahooClient *yahoo.Client

	// Services
	Aggregator       *signals.Aggregator
	IngestionService *ingestion.Service
	BackupService    *reliability.BackupService // nil when backups are disabled

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the job instances that can be triggered manually over the API
type JobInstances struct {
	Refresh     *ingestion.RefreshJob
	Maintenance *reliability.MaintenanceJob
	Backup      *reliability.BackupJob // nil when backups are disabled
}

// ByName returns the jobs keyed by their scheduler name
func (j *JobInstances) ByName() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	if j == nil {
		return jobs
	}
	if j.Refresh != nil {
		jobs[j.Refresh.Name()] = j.Refresh
	}
	if j.Maintenance != nil {
		jobs[j.Maintenance.Name()] = j.Maintenance
	}
	if j.Backup != nil {
		jobs[j.Backup.Name()] = j.Backup
	}
	return jobs
}

// Close stops background jobs and closes the database
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
