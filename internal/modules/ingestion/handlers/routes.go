package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the ingestion and metadata routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/etfs/add", h.HandleAddETF)
	r.Get("/etfs/info", h.HandleGetInfo)
}
