// internal/api/auth.go
package api

import (
	"context"
	"errors"
	"net/http"

	"scribe-api/internal/common/auth"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/models"
	"scribe-api/internal/session"
)

// handleLogin completes the OIDC authorization code flow. The provider
// redirects the browser here with a code; the handler trades it for
// tokens, registers the user and opens a session.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"missing authorization code", "the code query parameter is required"))
		return
	}

	tokens, err := a.oidc.ExchangeCode(ctx, code)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	claims, err := auth.ParseClaims(tokens.IDToken)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	_, lookupErr := a.users.Get(ctx, claims.Username)
	user, err := a.users.Upsert(ctx, claims.Username, claims.Email, claims.Realm)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if isNotFound(lookupErr) {
		a.notifySignup(ctx, user)
	}

	sess := session.New(user.Username)
	sess.Token = tokens.IDToken
	sess.RefreshToken = tokens.RefreshToken
	if tz := r.URL.Query().Get("tz"); tz != "" {
		sess.Timezone = tz
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	a.cookies.SetCookie(w, sess.ID)
	a.logger.Info("user logged in", map[string]interface{}{
		"username": user.Username,
		"realm":    user.Realm,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

func isNotFound(err error) bool {
	var stdErr *apperrors.StandardError
	return errors.As(err, &stdErr) && stdErr.Code == apperrors.CodeNotFound
}

// notifySignup mails every administrator who opted into signup alerts
// about a freshly registered account.
func (a *API) notifySignup(ctx context.Context, newUser *models.User) {
	admins, err := a.users.List(ctx, "")
	if err != nil {
		a.logger.WithError(err).Warn("failed to list admins for signup alert", nil)
		return
	}
	for _, admin := range admins {
		if admin.Admin {
			a.notifier.UserSignedUp(ctx, admin, newUser)
		}
	}
}

// handleLogout revokes the refresh token, drops the session and clears
// the cookie. Revocation failures are logged; the local session dies
// regardless.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id, err := a.cookies.ReadCookie(r); err == nil {
		if sess, err := a.sessions.Get(ctx, id); err == nil {
			if sess.RefreshToken != "" {
				if err := a.oidc.Logout(ctx, sess.RefreshToken); err != nil {
					a.logger.WithError(err).Warn("token revocation failed", map[string]interface{}{
						"username": sess.Username,
					})
				}
			}
			if err := a.sessions.Delete(ctx, sess.ID); err != nil {
				a.logger.WithError(err).Warn("failed to delete session", nil)
			}
		}
	}

	a.cookies.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleRefresh renews the session's tokens. The UI polls this route to
// keep long-lived editor sessions alive.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
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

	claims, err := a.refreshSession(r, sess)
	if err != nil {
		a.cookies.ClearCookie(w)
		a.errs.Respond(w, r, err)
		return
	}

	a.cookies.SetCookie(w, sess.ID)
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "refreshed",
		"expires_at": claims.ExpiresAt,
	})
}
