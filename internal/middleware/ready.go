package middleware

import (
	"net/http"

	"github.com/dukerupert/carewatch/internal/apperr"
	"github.com/dukerupert/carewatch/internal/health"
	"github.com/dukerupert/carewatch/internal/respond"
)

// DBUnavailableHint is returned to clients while the database is down.
const DBUnavailableHint = apperr.DBUnavailableHint

// RequireReady answers 503 with DBUnavailableHint until state is ready.
func RequireReady(state *health.State) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !state.Ready() {
				respond.Error(w, r, nil, apperr.Unavailable(DBUnavailableHint, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
