// Package auth carries the caller's role through a request. Identity is a
// stub: the role comes from a request header, optionally gated by a shared
// access code, and is never verified against an account.
package auth

import (
	"context"

	"github.com/dukerupert/carewatch/internal/model"
)

type contextKey struct{}

type AuthContext struct {
	Role model.Role
	// CodeVerified is set when the request presented the shared access code.
	CodeVerified bool
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Role returns the caller's role, or false when the request carried none.
func Role(ctx context.Context) (model.Role, bool) {
	ac, ok := FromContext(ctx)
	if !ok || ac.Role == "" {
		return "", false
	}
	return ac.Role, true
}
