package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/validate"
	"github.com/dukerupert/carewatch/internal/websocket"
)

type VisitHandler struct {
	store    *store.VisitStore
	hub      *websocket.Hub
	recorder Recorder
	logger   *slog.Logger
}

func NewVisitHandler(vs *store.VisitStore, hub *websocket.Hub, rec Recorder, logger *slog.Logger) *VisitHandler {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &VisitHandler{store: vs, hub: hub, recorder: rec, logger: logger}
}

type visitRequest struct {
	CaregiverName string     `json:"caregiverName" validate:"required,max=200"`
	ElderName     string     `json:"elderName" validate:"required,max=200"`
	VisitedAt     *time.Time `json:"visitedAt"`
}

// List handles GET /api/v1/visits
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	visits, err := h.store.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if visits == nil {
		visits = []model.CaregiverVisit{}
	}
	respond.OK(w, http.StatusOK, visits)
}

// Create handles POST /api/v1/visits
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	validate.Trim(&req.CaregiverName, &req.ElderName)
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	v, err := h.store.Create(r.Context(), req.CaregiverName, req.ElderName, req.VisitedAt)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	h.recorder.VisitLogged()
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityCaregiverVisit, "created", v.ID, v))
	}
	respond.OK(w, http.StatusCreated, v)
}
