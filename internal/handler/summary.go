package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/respond"
	"github.com/dukerupert/carewatch/internal/summary"
)

type SummaryHandler struct {
	svc    *summary.Service
	now    func() time.Time
	logger *slog.Logger
}

func NewSummaryHandler(svc *summary.Service, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, now: time.Now, logger: logger}
}

var localLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.999999999",
}

// ParseDate accepts an RFC 3339 timestamp, a bare YYYY-MM-DD date or a
// local date-time without an offset. The last two are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("date must be an ISO 8601 date or timestamp, got %q", s)
}

// Monthly handles GET /api/v1/summary/monthly?date=ISO8601
func (h *SummaryHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	ref := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := ParseDate(raw, h.svc.Location())
		if err != nil {
			respond.Error(w, r, h.logger, err)
			return
		}
		ref = t
	}

	s, err := h.svc.Monthly(r.Context(), ref)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.OK(w, http.StatusOK, s)
}
