package ingestion

import (
	"context"
	"fmt"
)

// RefreshJob re-ingests every stored ETF on a schedule
type RefreshJob struct {
	service *Service
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(service *Service) *RefreshJob {
	return &RefreshJob{service: service}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh_etfs"
}

// Run executes the refresh. Fails when any symbol failed to refresh.
func (j *RefreshJob) Run(ctx context.Context) error {
	report, err := j.service.RefreshAll(ctx)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d ETFs failed to refresh: %v",
			len(report.Failed), len(report.Failed)+len(report.Succeeded), report.Failed)
	}
	return nil
}
