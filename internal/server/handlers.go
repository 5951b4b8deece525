// Package server provides the HTTP server and routing for etfscope.
package server

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RouteInfo describes one registered route
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "etfscope",
	}

	writeJSON(w, http.StatusOK, response, s.log)
}

// handleRoutes lists every registered route, sorted by pattern then method
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := listRoutes(s.router)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to walk routes")
		writeError(w, http.StatusInternalServerError, "Failed to list routes", s.log)
		return
	}

	writeJSON(w, http.StatusOK, routes, s.log)
}

func listRoutes(router chi.Routes) ([]RouteInfo, error) {
	routes := []RouteInfo{}
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Pattern: route})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, nil
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an {"error": message} JSON response
func writeError(w http.ResponseWriter, status int, message string, log zerolog.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, log)
}
