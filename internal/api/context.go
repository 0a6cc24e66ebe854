// internal/api/context.go
package api

import (
	"context"
	"net/http"

	"scribe-api/internal/common/auth"
	"scribe-api/internal/models"
	"scribe-api/internal/session"
)

// Principal is the resolved identity of an authenticated request.
type Principal struct {
	Session *session.Session
	Claims  *auth.Claims
	User    *models.User
}

type contextKey int

const principalKey contextKey = iota

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// principalFrom returns the request's principal. It is only valid behind
// the auth middleware.
func principalFrom(r *http.Request) *Principal {
	p, _ := r.Context().Value(principalKey).(*Principal)
	return p
}
