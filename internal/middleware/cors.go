package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS allows the browser dashboard to call the API from another origin.
// An origins list containing "*" allows any origin and an empty list allows
// none. Preflight requests are answered here and never reach next.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	// cors.Options treats an empty list as "*".
	if len(allowed) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", RoleHeader, AccessCodeHeader},
		MaxAge:         600,
	}).Handler
}
