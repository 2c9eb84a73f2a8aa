package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/risk"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/validate"
	"github.com/dukerupert/carewatch/internal/websocket"
)

type VitalHandler struct {
	store    *store.VitalStore
	hub      *websocket.Hub
	recorder Recorder
	logger   *slog.Logger
}

func NewVitalHandler(vs *store.VitalStore, hub *websocket.Hub, rec Recorder, logger *slog.Logger) *VitalHandler {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &VitalHandler{store: vs, hub: hub, recorder: rec, logger: logger}
}

type vitalRequest struct {
	Systolic  *float64   `json:"systolic" validate:"required,gte=0"`
	Diastolic *float64   `json:"diastolic" validate:"required,gte=0"`
	HeartRate *float64   `json:"hr" validate:"required,gte=0"`
	ElderName string     `json:"elderName" validate:"max=200"`
	Timestamp *time.Time `json:"ts"`
}

// List handles GET /api/v1/vitals
func (h *VitalHandler) List(w http.ResponseWriter, r *http.Request) {
	vitals, err := h.store.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if vitals == nil {
		vitals = []model.VitalReading{}
	}
	respond.OK(w, http.StatusOK, vitals)
}

// Create handles POST /api/v1/vitals
func (h *VitalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vitalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	validate.Trim(&req.ElderName)
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	v, err := h.store.Create(r.Context(), *req.Systolic, *req.Diastolic, *req.HeartRate, req.ElderName, req.Timestamp)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	level := risk.Evaluate(v)
	h.recorder.VitalRecorded(level)
	if level == risk.LevelHigh {
		h.logger.Warn("high-risk vital reading", "id", v.ID, "elder", v.ElderName,
			"systolic", v.Systolic, "diastolic", v.Diastolic, "hr", v.HeartRate)
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityVitalReading, "created", v.ID, v))
	}
	respond.OK(w, http.StatusCreated, v)
}

// Risk handles GET /api/v1/vitals/risk
func (h *VitalHandler) Risk(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.Latest(r.Context())
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, risk.Assess(latest))
}
