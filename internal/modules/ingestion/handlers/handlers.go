// Package handlers provides HTTP handlers for adding ETFs and reading their metadata.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/aristath/etfscope/internal/modules/ingestion"
	"github.com/rs/zerolog"
)

// ETFAdder ingests a new ETF
type ETFAdder interface {
	AddETF(ctx context.Context, symbol string) (*domain.ETFInfo, error)
}

// MetadataLister lists stored ETF metadata
type MetadataLister interface {
	List(ctx context.Context) ([]domain.ETFInfo, error)
}

// Handler handles ETF ingestion HTTP requests
type Handler struct {
	adder    ETFAdder
	metadata MetadataLister
	log      zerolog.Logger
}

// NewHandler creates a new ingestion handler
func NewHandler(adder ETFAdder, metadata MetadataLister, log zerolog.Logger) *Handler {
	return &Handler{
		adder:    adder,
		metadata: metadata,
		log:      log.With().Str("handler", "ingestion").Logger(),
	}
}

type addETFRequest struct {
	Symbol string `json:"symbol"`
}

// HandleAddETF handles POST /api/etfs/add
func (h *Handler) HandleAddETF(w http.ResponseWriter, r *http.Request) {
	var req addETFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	raw := strings.TrimSpace(req.Symbol)
	if raw == "" {
		h.log.Error().Msg("ETF symbol is missing")
		h.writeError(w, http.StatusBadRequest, "ETF symbol is required")
		return
	}

	info, err := h.adder.AddETF(r.Context(), raw)
	if err != nil {
		status, message := describeAddError(raw, err)
		h.log.Error().Err(err).Str("symbol", raw).Int("status", status).Msg("Failed to add ETF")
		h.writeError(w, status, message)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("ETF %s has been added successfully.", info.Symbol),
	})
}

// describeAddError maps an ingestion failure onto a status code and client message
func describeAddError(symbol string, err error) (int, string) {
	symbol = strings.ToUpper(symbol)
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol):
		return http.StatusBadRequest, fmt.Sprintf("Invalid ETF symbol: %s", symbol)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, fmt.Sprintf("No data found for ETF symbol: %s", symbol)
	case errors.Is(err, domain.ErrFetch):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, ingestion.ErrSave):
		return http.StatusInternalServerError, fmt.Sprintf("Failed to save CSV for %s: %v", symbol, err)
	case errors.Is(err, ingestion.ErrMetadata):
		return http.StatusInternalServerError, fmt.Sprintf("Failed to fetch or update sector information for %s: %v", symbol, err)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An error occurred while adding the ETF: %v", err)
	}
}

// HandleGetInfo handles GET /api/etfs/info
// Returns symbol -> metadata for every tracked ETF
func (h *Handler) HandleGetInfo(w http.ResponseWriter, r *http.Request) {
	etfs, err := h.metadata.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ETF metadata")
		h.writeError(w, http.StatusInternalServerError, "Failed to list ETF metadata")
		return
	}

	out := make(map[string]domain.ETFInfo, len(etfs))
	for _, info := range etfs {
		out[info.Symbol] = info
	}
	h.writeJSON(w, http.StatusOK, out)
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
