// Package adminhttp exposes the read-only operator surface (A7): health,
// Prometheus metrics, and a JSON room census. It never mutates chat state.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infodancer/netchatd/internal/chat"
)

// NewRouter builds the admin HTTP router. metricsEnabled controls whether
// /metrics is mounted; registry backs /rooms.
func NewRouter(registry *chat.Registry, metricsEnabled bool) http.Handler {
	router := chi.NewRouter()

	router.Get("/healthz", handleHealthz)
	router.Get("/rooms", handleRooms(registry))

	if metricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	return router
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleRooms serves the live room census as JSON: room name to occupant
// count, the only externally reachable view of C4's room_census outside of
// a session's own /rooms command.
func handleRooms(registry *chat.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		census := registry.RoomCensus()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(census); err != nil {
			http.Error(w, "encoding error", http.StatusInternalServerError)
		}
	}
}
