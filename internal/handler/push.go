package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/auth"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/store"
	"github.com/dukerupert/carewatch/internal/validate"
)

type PushHandler struct {
	pushStore *store.PushStore
	publicKey string
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, vapidPublicKey string, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, publicKey: vapidPublicKey, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256dh   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
	Role     string `json:"role"`
}

// Subscribe handles POST /api/v1/push/subscriptions. The role defaults to
// the caller's role header.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	validate.Trim(&req.Endpoint, &req.P256dh, &req.Auth, &req.Role)
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	role, ok := model.ParseRole(req.Role)
	if req.Role == "" {
		role, ok = auth.Role(r.Context())
	}
	if !ok {
		respond.Error(w, r, h.logger, apperr.Validation("role must be one of: family, elder, caregiver, doctor"))
		return
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), req.Endpoint, req.P256dh, req.Auth, role)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/v1/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		respond.Error(w, r, h.logger, apperr.Validation("invalid id"))
		return
	}

	found, err := h.pushStore.DeleteSubscription(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if !found {
		respond.Error(w, r, h.logger, apperr.NotFound("push subscription %d not found", id))
		return
	}
	respond.OK(w, http.StatusOK, map[string]int64{"id": id})
}

// VAPIDKey handles GET /api/v1/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, http.StatusOK, map[string]string{"publicKey": h.publicKey})
}
