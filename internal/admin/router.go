// Package admin exposes read-only HTTP endpoints for operations tooling:
// health, room snapshots, and basic counters. It never mutates relay state.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

// RouterConfig holds the components the admin endpoints read from
type RouterConfig struct {
	Logger   *slog.Logger
	Rooms    *room.Manager
	Accounts *account.Service
	Registry *transport.Registry
}

// StatsResponse is the payload of GET /api/v1/stats
type StatsResponse struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Accounts    int `json:"accounts"`
}

// NewRouter creates the admin router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recovery(cfg.Logger))
	api.Use(logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Rooms.Snapshot())
	}).Methods(http.MethodGet)

	api.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		accounts, err := cfg.Accounts.Count(r.Context())
		if err != nil {
			cfg.Logger.Error("counting accounts", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{
			Connections: cfg.Registry.Count(),
			Rooms:       cfg.Rooms.RoomCount(),
			Accounts:    accounts,
		})
	}).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
