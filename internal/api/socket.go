// internal/api/socket.go
package api

import (
	"net/http"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/ws"
)

// handleJobStatusSocket upgrades the connection and parks it in the
// caller's status room until the browser goes away.
func (a *API) handleJobStatusSocket(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.WithError(err).Warn("websocket upgrade failed", map[string]interface{}{
			"username": p.User.Username,
		})
		return
	}

	a.hub.Register(p.User.Username, conn)
	defer a.hub.Unregister(p.User.Username, conn)

	// Broadcasts flow hub to browser; the read loop only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleInference bridges a browser websocket to the inference backend.
// Websocket upgrades cannot carry headers, so the signed session value
// arrives as a token query parameter.
func (a *API) handleInference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		a.errs.Respond(w, r, apperrors.NewAuthenticationError("missing token parameter"))
		return
	}
	id, err := a.cookies.Decode(token)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	sess, err := a.sessions.Get(ctx, id)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.WithError(err).Warn("websocket upgrade failed", map[string]interface{}{
			"username": sess.Username,
		})
		return
	}
	defer conn.Close()

	if err := a.relay.Run(ctx, conn); err != nil {
		a.logger.WithError(err).Warn("inference session ended with error", map[string]interface{}{
			"username": sess.Username,
		})
	}
}
