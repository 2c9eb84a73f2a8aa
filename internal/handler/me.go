package handler

import (
	"net/http"

	"github.com/dukerupert/carewatch/internal/auth"
	"github.com/dukerupert/carewatch/internal/model"
	"github.com/dukerupert/carewatch/internal/respond"
)

type meResponse struct {
	Role         *model.Role   `json:"role"`
	Views        []model.View  `json:"views"`
	Actions      []auth.Action `json:"actions"`
	Enforced     bool          `json:"enforced"`
	CodeVerified bool          `json:"codeVerified"`
}

// Me handles GET /api/v1/me. It reports the role the request carried and
// the dashboard views that role opens.
func Me(enforced bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := meResponse{Views: []model.View{}, Actions: []auth.Action{}, Enforced: enforced}
		if ac, ok := auth.FromContext(r.Context()); ok {
			resp.CodeVerified = ac.CodeVerified
		}
		if role, ok := auth.Role(r.Context()); ok {
			resp.Role = &role
			resp.Views = role.Views()
			resp.Actions = auth.Actions(role)
		}
		respond.OK(w, http.StatusOK, resp)
	}
}
