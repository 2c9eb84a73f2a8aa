package handler

import (
	"net/http"

	"github.com/dukerupert/carewatch/internal/health"
	"github.com/dukerupert/carewatch/internal/respond"
)

// Banner handles GET /
func Banner(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"message": "CareWatch API running"})
}

type healthResponse struct {
	Status   string          `json:"status"`
	Database health.Snapshot `json:"database"`
}

// Health handles GET /health. It answers 503 while the database is down so
// orchestrators can hold traffic.
func Health(state *health.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := state.Snapshot()
		if !snap.Ready {
			respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: snap})
			return
		}
		respond.JSON(w, http.StatusOK, healthResponse{Status: "ok", Database: snap})
	}
}
