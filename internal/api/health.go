// internal/api/health.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/validation"
	"scribe-api/internal/models"
)

// handleHeartbeat records a worker host sample. Workers post from inside
// the cluster and carry no session.
func (a *API) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.HeartbeatSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	var hb models.Heartbeat
	if err := json.Unmarshal(body, &hb); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := a.health.Record(r.Context(), hb); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthcheck returns the per-host samples for the operator
// dashboard.
func (a *API) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	samples, err := a.health.Samples(r.Context())
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	now := time.Now()
	hosts := make(map[string]interface{}, len(samples))
	for hostname, sample := range samples {
		hosts[hostname] = map[string]interface{}{
			"seen":         sample.Seen,
			"online":       sample.Online(now),
			"load_avg":     sample.LoadAvg,
			"memory_usage": sample.MemoryUsage,
			"gpu_usage":    sample.GPUUsage,
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"hosts": hosts})
}

// handleStatus is the public service status probe.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report := models.StatusReport{Backend: "ok", Database: "ok", Workers: "ok"}

	if a.db != nil {
		if err := a.db.Ping(ctx); err != nil {
			report.Database = "unreachable"
		}
	}

	samples, err := a.health.Samples(ctx)
	if err != nil {
		report.Workers = "unknown"
	} else {
		now := time.Now()
		for _, sample := range samples {
			if sample.Online(now) {
				report.WorkersOnline++
			}
		}
		if report.WorkersOnline == 0 {
			report.Workers = "offline"
		}
	}

	a.writeJSON(w, http.StatusOK, report)
}
