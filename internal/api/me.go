// internal/api/me.go
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"scribe-api/internal/common/auth"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/validation"
	"scribe-api/internal/models"
)

// handleMe returns the caller's account, claims and group quota view.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	payload := map[string]interface{}{
		"username":           p.User.Username,
		"email":              p.User.Email,
		"realm":              p.User.Realm,
		"active":             p.User.Active || p.Claims.Activated,
		"admin":              p.Claims.Admin || p.User.Admin,
		"bofh":               p.Claims.BOFH,
		"notify_on_job":      p.User.NotifyOnJob,
		"notify_on_deletion": p.User.NotifyOnDeletion,
		"notify_on_user":     p.User.NotifyOnUser,
		"has_passphrase":     false,
	}

	if hash, err := a.users.PassphraseHash(ctx, p.User.Username); err == nil && hash != "" {
		payload["has_passphrase"] = true
	}

	group, err := a.groups.GroupForUser(ctx, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if group != nil {
		groupView := map[string]interface{}{
			"name":          group.Name,
			"quota_minutes": group.QuotaMinutes(),
			"unlimited":     group.Unlimited(),
		}
		consumed, err := a.groups.ConsumedSeconds(ctx, group.ID)
		if err != nil {
			a.errs.Respond(w, r, err)
			return
		}
		groupView["consumed_minutes"] = consumed / 60
		payload["group"] = groupView
	}

	a.writeJSON(w, http.StatusOK, payload)
}

// handleUpdateAccount applies self-service account changes.
func (a *API) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.AccountSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	var update models.AccountUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	user, err := a.users.UpdateAccount(ctx, p.User.Username, update)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// handleSetPassphrase stores the caller's result encryption passphrase.
// The hash goes to Postgres; the plaintext only lives in the session so
// results can be decrypted during it.
func (a *API) handleSetPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	req, ok := a.readPassphrase(w, r)
	if !ok {
		return
	}

	hash, err := auth.HashPassphrase(req.Passphrase)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if err := a.users.SetPassphrase(ctx, p.User.Username, hash); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	p.Session.EncryptionPassword = req.Passphrase
	if err := a.sessions.Save(ctx, p.Session); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"status": "passphrase set"})
}

// handleVerifyPassphrase checks a passphrase against the stored hash and,
// on success, unlocks the session for result decryption.
func (a *API) handleVerifyPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	req, ok := a.readPassphrase(w, r)
	if !ok {
		return
	}

	hash, err := a.users.PassphraseHash(ctx, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if hash == "" || !auth.VerifyPassphrase(hash, req.Passphrase) {
		a.errs.Respond(w, r, apperrors.NewAuthenticationError("passphrase does not match"))
		return
	}

	p.Session.EncryptionPassword = req.Passphrase
	if err := a.sessions.Save(ctx, p.Session); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"status": "passphrase verified"})
}

// handleResetPassphrase drops the stored passphrase and locks the
// session. Results encrypted under the old passphrase stay until the
// retention reaper removes them.
func (a *API) handleResetPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	if err := a.users.ClearPassphrase(ctx, p.User.Username); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	p.Session.EncryptionPassword = ""
	if err := a.sessions.Save(ctx, p.Session); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"status": "passphrase reset"})
}

func (a *API) readPassphrase(w http.ResponseWriter, r *http.Request) (passphraseRequest, bool) {
	var req passphraseRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return req, false
	}
	if err := validation.ValidateJSON(validation.PassphraseSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return req, false
	}
	return req, true
}
