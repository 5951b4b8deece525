// Package scheduler runs background jobs on cron schedules and records each run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrJobRunning is returned when a job is started while a previous run of it is still going
var ErrJobRunning = errors.New("job is already running")

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// RunRecorder persists the start and outcome of job runs
type RunRecorder interface {
	Start(ctx context.Context, run Run) error
	Finish(ctx context.Context, run Run) error
}

// Scheduler manages background jobs.
// A job whose previous run is still going is skipped rather than queued, whether the
// new run comes from its schedule, RunNow or Trigger.
type Scheduler struct {
	cron    *cron.Cron
	runs    RunRecorder
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]*atomic.Bool
	log     zerolog.Logger
}

// New creates a new scheduler. runs may be nil, in which case runs are only logged.
func New(runs RunRecorder, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runs:    runs,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]*atomic.Bool),
		log:     log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job on a six-field cron schedule (seconds first).
// Schedule examples:
//   - "0 30 22 * * MON-FRI" - 22:30 on weekdays
//   - "@daily"              - midnight
//   - "@every 6h"           - every six hours
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.runGuarded(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately, outside its schedule.
// Returns ErrJobRunning when the job is already running.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.runGuarded(ctx, job)
}

// Trigger starts job in the background. The run is cancelled by Stop.
// Returns ErrJobRunning without starting anything when the job is already running.
func (s *Scheduler) Trigger(job Job) error {
	guard := s.guard(job.Name())
	if !guard.CompareAndSwap(false, true) {
		s.log.Info().Str("job", job.Name()).Msg("Job still running, trigger ignored")
		return fmt.Errorf("%w: %s", ErrJobRunning, job.Name())
	}

	s.log.Info().Str("job", job.Name()).Msg("Job triggered")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer guard.Store(false)
		_ = s.execute(s.ctx, job)
	}()
	return nil
}

// guard returns the running flag shared by every run of the named job
func (s *Scheduler) guard(name string) *atomic.Bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.running[name]
	if !ok {
		g = &atomic.Bool{}
		s.running[name] = g
	}
	return g
}

func (s *Scheduler) runGuarded(ctx context.Context, job Job) error {
	guard := s.guard(job.Name())
	if !guard.CompareAndSwap(false, true) {
		s.log.Info().Str("job", job.Name()).Msg("Job still running, run skipped")
		return fmt.Errorf("%w: %s", ErrJobRunning, job.Name())
	}
	defer guard.Store(false)
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	run := Run{
		ID:        uuid.NewString(),
		Job:       job.Name(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	log := s.log.With().Str("job", run.Job).Str("run_id", run.ID).Logger()
	// Runs are stored even when ctx is already cancelled
	recordCtx := context.WithoutCancel(ctx)
	s.record(recordCtx, log, run, true)

	log.Debug().Msg("Running job")
	err := job.Run(ctx)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = StatusSucceeded
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		log.Error().Err(err).Dur("duration_ms", finished.Sub(run.StartedAt)).Msg("Job failed")
	} else {
		log.Info().Dur("duration_ms", finished.Sub(run.StartedAt)).Msg("Job completed")
	}

	s.record(recordCtx, log, run, false)
	return err
}

func (s *Scheduler) record(ctx context.Context, log zerolog.Logger, run Run, start bool) {
	if s.runs == nil {
		return
	}
	var err error
	if start {
		err = s.runs.Start(ctx, run)
	} else {
		err = s.runs.Finish(ctx, run)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record job run")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
