package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/carewatch/internal/auth"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
)

const (
	RoleHeader       = "X-CareWatch-Role"
	AccessCodeHeader = "X-CareWatch-Access-Code"
)

type IdentifyConfig struct {
	// AccessCodeHash is a bcrypt hash. When set, every request must present
	// the matching code in AccessCodeHeader.
	AccessCodeHash []byte
	// Enforce rejects requests without a known role.
	Enforce bool
}

// Identify reads the caller's role from RoleHeader and populates
// AuthContext. Unknown roles are ignored unless cfg.Enforce is set.
func Identify(cfg IdentifyConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ac auth.AuthContext

			if len(cfg.AccessCodeHash) > 0 {
				code := r.Header.Get(AccessCodeHeader)
				if code == "" || bcrypt.CompareHashAndPassword(cfg.AccessCodeHash, []byte(code)) != nil {
					logger.Warn("access code rejected", "path", r.URL.Path, "remote", RealIP(r))
					respond.Fail(w, http.StatusUnauthorized, "access code required")
					return
				}
				ac.CodeVerified = true
			}

			raw := strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader)))
			role, ok := model.ParseRole(raw)
			switch {
			case ok:
				ac.Role = role
			case cfg.Enforce && raw == "":
				respond.Fail(w, http.StatusUnauthorized, "role header "+RoleHeader+" is required")
				return
			case cfg.Enforce:
				respond.Fail(w, http.StatusUnauthorized, "unknown role "+raw)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequirePermission rejects callers whose role may not perform a. With
// enforce off it only passes requests through.
func RequirePermission(enforce bool, a auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := auth.Role(r.Context())
			if !ok {
				respond.Fail(w, http.StatusUnauthorized, "role header "+RoleHeader+" is required")
				return
			}
			if !auth.Can(role, a) {
				respond.Fail(w, http.StatusForbidden, "role "+string(role)+" is not allowed to "+strings.ReplaceAll(string(a), "_", " "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
