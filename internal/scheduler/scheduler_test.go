package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aristath/etfscope/internal/database"
	testingpkg "github.com/aristath/etfscope/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	return j.err
}

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(nil, testLogger())

	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"six fields", "0 30 22 * * MON-FRI", false},
		{"descriptor", "@daily", false},
		{"every", "@every 6h", false},
		{"five fields", "30 22 * * *", true},
		{"garbage", "whenever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddJob(tt.schedule, &countingJob{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, testLogger())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
}

func TestScheduler_RunNowRecordsRuns(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db.Conn())
	s := New(runs, testLogger())
	ctx := context.Background()

	ok := &countingJob{}
	require.NoError(t, s.RunNow(ctx, ok))

	failing := &countingJob{err: errors.New("upstream down")}
	err := s.RunNow(ctx, failing)
	require.Error(t, err)

	recent, err := runs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first
	assert.Equal(t, StatusFailed, recent[0].Status)
	assert.Equal(t, "upstream down", recent[0].Error)
	assert.Equal(t, StatusSucceeded, recent[1].Status)
	assert.Empty(t, recent[1].Error)
	for _, run := range recent {
		assert.Equal(t, "counting", run.Job)
		assert.NotEmpty(t, run.ID)
		require.NotNil(t, run.FinishedAt)
	}
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)
}

func TestRunRepository_RecentLimit(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db.Conn())
	s := New(runs, testLogger())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RunNow(context.Background(), &countingJob{}))
	}

	recent, err := runs.Recent(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestScheduler_TriggerCompletesBeforeStop(t *testing.T) {
	s := New(nil, testLogger())
	job := &countingJob{}

	require.NoError(t, s.Trigger(job))
	s.Stop()

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, 1, job.calls)
}

// blockingJob runs until release is closed
type blockingJob struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingJob() *blockingJob {
	return &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	j.started <- struct{}{}
	<-j.release
	return nil
}

func TestScheduler_TriggerSkipsRunningJob(t *testing.T) {
	s := New(nil, testLogger())
	job := newBlockingJob()

	require.NoError(t, s.Trigger(job))
	<-job.started

	assert.ErrorIs(t, s.Trigger(job), ErrJobRunning)
	assert.ErrorIs(t, s.RunNow(context.Background(), job), ErrJobRunning)

	close(job.release)
	s.Stop()
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestScheduler_RunNowBlocksTrigger(t *testing.T) {
	s := New(nil, testLogger())
	job := newBlockingJob()

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), job) }()
	<-job.started

	assert.ErrorIs(t, s.Trigger(job), ErrJobRunning)

	close(job.release)
	require.NoError(t, <-done)

	// The guard is released once the run returns
	other := &countingJob{}
	require.NoError(t, s.Trigger(other))
	s.Stop()
	assert.Equal(t, 1, other.calls)
}

func newTestDB(t *testing.T) *database.DB {
	db, _ := testingpkg.NewTestDB(t, "etfs")
	return db
}
