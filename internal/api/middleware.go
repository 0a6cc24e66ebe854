// internal/api/middleware.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"scribe-api/internal/common/auth"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/metrics"
	"scribe-api/internal/session"
)

// metricsMiddleware records request counts and latency per route pattern.
func (a *API) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			route, r.Method, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).
			Observe(time.Since(start).Seconds())
	})
}

// authMiddleware resolves the session cookie to a principal. Expired ID
// tokens are refreshed in place; a session whose refresh fails is cleared
// and the request rejected.
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := a.cookies.ReadCookie(r)
		if err != nil {
			a.errs.Respond(w, r, err)
			return
		}

		sess, err := a.sessions.Get(ctx, id)
		if err != nil {
			a.cookies.ClearCookie(w)
			a.errs.Respond(w, r, err)
			return
		}

		claims, err := auth.ParseClaims(sess.Token)
		if err != nil {
			a.cookies.ClearCookie(w)
			a.errs.Respond(w, r, err)
			return
		}

		if claims.Expired(time.Now()) {
			claims, err = a.refreshSession(r, sess)
			if err != nil {
				a.cookies.ClearCookie(w)
				a.errs.Respond(w, r, apperrors.NewAuthenticationError("session expired"))
				return
			}
		}

		user, err := a.users.Get(ctx, claims.Username)
		if err != nil {
			// First request after a provider-side account rename can race
			// the login upsert.
			user, err = a.users.Upsert(ctx, claims.Username, claims.Email, claims.Realm)
			if err != nil {
				a.errs.Respond(w, r, err)
				return
			}
		}

		if err := a.sessions.Touch(ctx, sess.ID); err != nil {
			a.logger.WithError(err).Warn("failed to touch session", map[string]interface{}{
				"username": sess.Username,
			})
		}
		if err := a.users.TouchLastSeen(ctx, user.Username); err != nil {
			a.logger.WithError(err).Warn("failed to touch user", map[string]interface{}{
				"username": user.Username,
			})
		}

		principal := &Principal{Session: sess, Claims: claims, User: user}
		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
	})
}

// refreshSession trades the session's refresh token for fresh tokens and
// persists them.
func (a *API) refreshSession(r *http.Request, sess *session.Session) (*auth.Claims, error) {
	ctx := r.Context()

	tokens, err := a.oidc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := auth.ParseClaims(tokens.IDToken)
	if err != nil {
		return nil, err
	}

	sess.Token = tokens.IDToken
	if tokens.RefreshToken != "" {
		sess.RefreshToken = tokens.RefreshToken
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return claims, nil
}

// requireActive rejects accounts that have not been activated by an
// administrator.
func (a *API) requireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			a.errs.Respond(w, r, apperrors.NewAuthenticationError("not authenticated"))
			return
		}
		if !p.User.Active && !p.Claims.Activated {
			a.errs.Respond(w, r, apperrors.NewPendingActivationError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin limits a route to administrators. Realm scoping for domain
// admins happens in the handlers.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			a.errs.Respond(w, r, apperrors.NewAuthenticationError("not authenticated"))
			return
		}
		if !p.Claims.Admin && !p.User.Admin {
			a.errs.Respond(w, r, apperrors.NewAuthorizationError("administrator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireBOFH limits a route to operators.
func (a *API) requireBOFH(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r)
		if p == nil {
			a.errs.Respond(w, r, apperrors.NewAuthenticationError("not authenticated"))
			return
		}
		if !p.Claims.BOFH {
			a.errs.Respond(w, r, apperrors.NewAuthorizationError("operator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
