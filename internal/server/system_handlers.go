package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/aristath/etfscope/internal/database"
	"github.com/aristath/etfscope/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// SymbolLister lists the stored ETF symbols
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// DatabaseStatter reports database file statistics
type DatabaseStatter interface {
	GetStats(ctx context.Context) (*database.Stats, error)
}

// RunLister returns recent job runs, newest first
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]scheduler.Run, error)
}

// JobTrigger starts a job in the background.
// Trigger returns scheduler.ErrJobRunning when the job is already running.
type JobTrigger interface {
	Trigger(job scheduler.Job) error
}

// SystemHandlers handles system monitoring and job endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	symbols     SymbolLister
	db          DatabaseStatter
	runs        RunLister
	trigger     JobTrigger
	jobs        map[string]scheduler.Job
	hostStats   func() (float64, float64)
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status      string          `json:"status"`
	SymbolCount int             `json:"symbol_count"`
	DataDir     string          `json:"data_dir"`
	Database    *database.Stats `json:"database,omitempty"`
	CPUPercent  float64         `json:"cpu_percent"`
	RAMPercent  float64         `json:"ram_percent"`
	UptimeHours float64         `json:"uptime_hours"`
}

// JobsStatusResponse is the body of GET /api/system/jobs
type JobsStatusResponse struct {
	Jobs []string        `json:"jobs"`
	Runs []scheduler.Run `json:"runs"`
}

// NewSystemHandlers creates system handlers. Jobs are attached later with SetJobs.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	symbols SymbolLister,
	db DatabaseStatter,
	runs RunLister,
	trigger JobTrigger,
) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		symbols:     symbols,
		db:          db,
		runs:        runs,
		trigger:     trigger,
		jobs:        make(map[string]scheduler.Job),
	}
	h.hostStats = h.getSystemStats
	return h
}

// SetJobs registers the jobs that can be triggered manually
func (h *SystemHandlers) SetJobs(jobs map[string]scheduler.Job) {
	h.jobs = make(map[string]scheduler.Job, len(jobs))
	for name, job := range jobs {
		h.jobs[name] = job
	}
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/jobs", h.HandleJobsStatus)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// HandleSystemStatus returns the symbol count, database statistics and host load.
// Collection failures degrade the status instead of failing the request.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response := SystemStatusResponse{
		Status:      "healthy",
		DataDir:     h.dataDir,
		UptimeHours: time.Since(h.startupTime).Hours(),
	}

	symbols, err := h.symbols.ListSymbols(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		response.Status = "degraded"
	}
	response.SymbolCount = len(symbols)

	if h.db != nil {
		stats, err := h.db.GetStats(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to get database stats")
			response.Status = "degraded"
		}
		response.Database = stats
	}

	response.CPUPercent, response.RAMPercent = h.hostStats()

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleJobsStatus returns the triggerable jobs and the most recent runs.
// The number of runs is set with ?limit= (default 20, at most 200).
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", h.log)
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	runs := []scheduler.Run{}
	if h.runs != nil {
		recent, err := h.runs.Recent(r.Context(), limit)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to get job runs")
			writeError(w, http.StatusInternalServerError, "Failed to get job runs", h.log)
			return
		}
		runs = append(runs, recent...)
	}

	writeJSON(w, http.StatusOK, JobsStatusResponse{Jobs: names, Runs: runs}, h.log)
}

// HandleTriggerJob starts the named job in the background and returns 202,
// or 409 when a run of that job is still going
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown job: "+name, h.log)
		return
	}

	if err := h.trigger.Trigger(job); err != nil {
		if errors.Is(err, scheduler.ErrJobRunning) {
			writeError(w, http.StatusConflict, "Job "+name+" is already running", h.log)
			return
		}
		h.log.Error().Err(err).Str("job", name).Msg("Failed to trigger job")
		writeError(w, http.StatusInternalServerError, "Failed to trigger job: "+name, h.log)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Job " + name + " triggered",
	}, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms so the status call stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStats, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory stats")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStats.UsedPercent
}
