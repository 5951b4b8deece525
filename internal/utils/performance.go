// Package utils holds small helpers shared across packages.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Slow operation thresholds
const (
	slowOperation     = 10 * time.Second
	verySlowOperation = 30 * time.Second
)

// Timer measures the duration of one operation
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer named name
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs and returns the elapsed time. Slow operations are logged above debug level.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	logDuration(t.log, t.name, duration)
	return duration
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func (s *BackupService) CreateAndUpload(ctx context.Context) error {
//	    defer utils.OperationTimer("backup", s.log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		logDuration(log, operation, time.Since(start))
	}
}

func logDuration(log zerolog.Logger, operation string, duration time.Duration) {
	log.Debug().
		Str("operation", operation).
		Dur("duration_ms", duration).
		Msg("Performance measurement")

	switch {
	case duration > verySlowOperation:
		log.Warn().
			Str("operation", operation).
			Dur("duration", duration).
			Msg("Slow operation detected (>30s)")
	case duration > slowOperation:
		log.Info().
			Str("operation", operation).
			Dur("duration", duration).
			Msg("Operation took longer than expected (>10s)")
	}
}
