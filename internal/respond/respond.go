// Package respond writes the JSON envelope every API route answers with:
// {"success":true,"data":...} or {"success":false,"message":"..."}.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/database"
)

type okBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type failBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v as-is, without the envelope.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, okBody{Success: true, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, failBody{Success: false, Message: message})
}

// Error maps err to its HTTP status and client-safe message. Internal
// errors are logged with their cause; clients only see a generic message.
// A lost database connection answers 503 like the readiness gate does.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if apperr.KindOf(err) == apperr.KindInternal && database.IsConnError(err) {
		err = apperr.Unavailable(apperr.DBUnavailableHint, err)
	}

	status := apperr.Status(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	Fail(w, status, apperr.Message(err))
}
