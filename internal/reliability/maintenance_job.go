package reliability

import (
	"context"
	"fmt"

	"github.com/aristath/etfscope/internal/database"
	"github.com/aristath/etfscope/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Free space thresholds of the data directory's filesystem
const (
	criticalFreeBytes = 500 << 20
	lowFreeBytes      = 5 << 30
)

// MaintenanceJob checks the metadata database, folds its WAL back into the main
// file and watches free disk space under the data directory
type MaintenanceJob struct {
	db      *database.DB
	dataDir string
	usage   func(ctx context.Context, path string) (*disk.UsageStat, error)
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		usage:   disk.UsageWithContext,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run(ctx context.Context) error {
	defer utils.OperationTimer("maintenance", j.log)()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database %s is unhealthy: %w", j.db.Name(), err)
	}

	if err := j.db.Checkpoint(ctx); err != nil {
		// Not critical; the next checkpoint catches up
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(ctx); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(ctx); err == nil {
		j.log.Info().
			Str("database", j.db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Msg("Maintenance completed")
	}
	return nil
}

func (j *MaintenanceJob) checkDiskSpace(ctx context.Context) error {
	usage, err := j.usage(ctx, j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem of %s: %w", j.dataDir, err)
	}

	availableGB := float64(usage.Free) / 1e9
	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().Float64("available_gb", availableGB).Msg("Insufficient disk space")
		return fmt.Errorf("only %.2f GB free under %s", availableGB, j.dataDir)
	case usage.Free < lowFreeBytes:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}
	return nil
}
