// Package handlers provides HTTP handlers for the heatmap and chart views.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aristath/etfscope/internal/modules/signals"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ContentTypeMsgpack is the media type clients send in Accept to get msgpack bodies
const ContentTypeMsgpack = "application/msgpack"

// Handler handles signal HTTP requests
type Handler struct {
	aggregator *signals.Aggregator
	log        zerolog.Logger
}

// NewHandler creates a new signals handler
func NewHandler(aggregator *signals.Aggregator, log zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		log:        log.With().Str("handler", "signals").Logger(),
	}
}

// HandleGetDailyDetail handles GET /api/etfs
// Returns date -> symbol -> {Close, Color, DC, GLP}
func (h *Handler) HandleGetDailyDetail(w http.ResponseWriter, r *http.Request) {
	data, err := h.aggregator.ComputeDailyDetail(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute daily detail")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute daily detail")
		return
	}

	h.writeResponse(w, r, http.StatusOK, data)
}

// HandleGetChartData handles GET /api/etfs/chart_data
// Returns {data: month -> symbol -> 7-tuple, min_max: symbol -> {min, max}}
func (h *Handler) HandleGetChartData(w http.ResponseWriter, r *http.Request) {
	chart, err := h.aggregator.ComputeMonthlyChart(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute chart data")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute chart data")
		return
	}

	h.writeResponse(w, r, http.StatusOK, chart)
}

// writeResponse encodes data as msgpack when the client asks for it and as JSON otherwise
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if !acceptsMsgpack(r) {
		h.writeJSON(w, status, data)
		return
	}

	w.Header().Set("Content-Type", ContentTypeMsgpack)
	w.WriteHeader(status)

	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func acceptsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(mediaType, ContentTypeMsgpack) {
			return true
		}
	}
	return false
}
