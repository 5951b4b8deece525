package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the heatmap and chart routes.
// Other modules register further routes under /etfs, so no sub-router is mounted here.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/etfs", h.HandleGetDailyDetail)
	r.Get("/etfs/chart_data", h.HandleGetChartData)
}
