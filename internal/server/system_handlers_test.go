package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/etfscope/internal/database"
	"github.com/aristath/etfscope/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSymbols struct {
	symbols []string
	err     error
}

func (f *fakeSymbols) ListSymbols(ctx context.Context) ([]string, error) {
	return f.symbols, f.err
}

type fakeStats struct {
	err error
}

func (f *fakeStats) GetStats(ctx context.Context) (*database.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &database.Stats{SizeBytes: 8192, PageCount: 2, PageSize: 4096}, nil
}

type fakeRuns struct {
	runs      []scheduler.Run
	err       error
	lastLimit int
}

func (f *fakeRuns) Recent(ctx context.Context, limit int) ([]scheduler.Run, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

type fakeTrigger struct {
	triggered []string
	err       error
}

func (f *fakeTrigger) Trigger(job scheduler.Job) error {
	if f.err != nil {
		return f.err
	}
	f.triggered = append(f.triggered, job.Name())
	return nil
}

type namedJob string

func (j namedJob) Name() string                  { return string(j) }
func (j namedJob) Run(ctx context.Context) error { return nil }

func newSystemRouter(h *SystemHandlers) chi.Router {
	h.hostStats = func() (float64, float64) { return 1, 2 }
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)
	return router
}

func TestSystemHandlers_StatusDegraded(t *testing.T) {
	tests := []struct {
		name       string
		symbols    *fakeSymbols
		stats      *fakeStats
		wantStatus string
		wantCount  int
	}{
		{"healthy", &fakeSymbols{symbols: []string{"SPY"}}, &fakeStats{}, "healthy", 1},
		{"symbol listing fails", &fakeSymbols{err: errors.New("disk gone")}, &fakeStats{}, "degraded", 0},
		{"stats fail", &fakeSymbols{symbols: []string{"SPY", "QQQ"}}, &fakeStats{err: errors.New("locked")}, "degraded", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandlers(testLogger(), "/data", tt.symbols, tt.stats, &fakeRuns{}, &fakeTrigger{})
			router := newSystemRouter(h)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body SystemStatusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantCount, body.SymbolCount)
			assert.Equal(t, "/data", body.DataDir)
		})
	}
}

func TestSystemHandlers_JobsLimit(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, defaultRunsLimit},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=5000", http.StatusOK, maxRunsLimit},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			runs := &fakeRuns{}
			h := NewSystemHandlers(testLogger(), "/data", &fakeSymbols{}, nil, runs, &fakeTrigger{})
			router := newSystemRouter(h)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/jobs"+tt.query, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantLimit, runs.lastLimit)
		})
	}
}

func TestSystemHandlers_JobsListsRuns(t *testing.T) {
	finished := time.Date(2024, 5, 1, 3, 0, 5, 0, time.UTC)
	runs := &fakeRuns{runs: []scheduler.Run{{
		ID:         "run-1",
		Job:        "maintenance",
		Status:     scheduler.StatusSucceeded,
		StartedAt:  time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
	}}}
	h := NewSystemHandlers(testLogger(), "/data", &fakeSymbols{}, nil, runs, &fakeTrigger{})
	h.SetJobs(map[string]scheduler.Job{"refresh_etfs": namedJob("refresh_etfs"), "backup": namedJob("backup")})
	router := newSystemRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body JobsStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"backup", "refresh_etfs"}, body.Jobs)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].ID)
	assert.True(t, finished.Equal(*body.Runs[0].FinishedAt))
}

func TestSystemHandlers_JobsRunsFailure(t *testing.T) {
	h := NewSystemHandlers(testLogger(), "/data", &fakeSymbols{}, nil, &fakeRuns{err: errors.New("locked")}, &fakeTrigger{})
	router := newSystemRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/jobs", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to get job runs"}`, w.Body.String())
}

func TestSystemHandlers_TriggerJob(t *testing.T) {
	trigger := &fakeTrigger{}
	h := NewSystemHandlers(testLogger(), "/data", &fakeSymbols{}, nil, &fakeRuns{}, trigger)
	h.SetJobs(map[string]scheduler.Job{"backup": namedJob("backup")})
	router := newSystemRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/backup", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"message":"Job backup triggered"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/planner", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{"backup"}, trigger.triggered)
}

func TestSystemHandlers_TriggerJobAlreadyRunning(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "running",
			err:            fmt.Errorf("%w: refresh_etfs", scheduler.ErrJobRunning),
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"error":"Job refresh_etfs is already running"}`,
		},
		{
			name:           "other failure",
			err:            errors.New("scheduler stopped"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to trigger job: refresh_etfs"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandlers(testLogger(), "/data", &fakeSymbols{}, nil, &fakeRuns{}, &fakeTrigger{err: tt.err})
			h.SetJobs(map[string]scheduler.Job{"refresh_etfs": namedJob("refresh_etfs")})

			w := httptest.NewRecorder()
			newSystemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/system/jobs/refresh_etfs", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
