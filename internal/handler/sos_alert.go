package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/carewatch/internal/alert"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/store"
)

type AlertHandler struct {
	svc    *alert.Service
	visits *store.VisitStore
	logger *slog.Logger
}

func NewAlertHandler(svc *alert.Service, visits *store.VisitStore, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{svc: svc, visits: visits, logger: logger}
}

// List handles GET /api/v1/sos-alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, alerts)
}

// Create handles POST /api/v1/sos-alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req alert.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	a, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusCreated, a)
}

// Get handles GET /api/v1/sos-alerts/{id}
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, a)
}

// Visits handles GET /api/v1/sos-alerts/{id}/visits
func (h *AlertHandler) Visits(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	visits, err := h.visits.ListByAlert(r.Context(), a.ID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if visits == nil {
		visits = []model.CaregiverVisit{}
	}
	respond.OK(w, http.StatusOK, visits)
}

// Patch handles PATCH /api/v1/sos-alerts/{id}
func (h *AlertHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req alert.PatchInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	a, err := h.svc.Patch(r.Context(), r.PathValue("id"), req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, a)
}
