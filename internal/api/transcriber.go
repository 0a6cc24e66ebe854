// internal/api/transcriber.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/validation"
	"scribe-api/internal/models"
	"scribe-api/internal/subtitle"
)

const (
	// maxUploadFiles caps how many media files one request may carry.
	maxUploadFiles = 5

	// maxUploadBytes caps the in-memory part of a multipart upload.
	maxUploadBytes = 32 << 20

	// resultRetention is how long completed transcripts stay before the
	// deletion sweep removes them.
	resultRetention = 30 * 24 * time.Hour
)

// handleListJobs returns the caller's jobs, newest first.
func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	jobs, err := a.jobs.ListForUser(r.Context(), p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	views := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, job.APIView())
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": views})
}

// handleUpload accepts up to five media files and creates an uploaded job
// for each.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid multipart request", err.Error()))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"no files uploaded", "the files form field is required"))
		return
	}
	if len(files) > maxUploadFiles {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"too many files",
			fmt.Sprintf("at most %d files per upload", maxUploadFiles)))
		return
	}
	for _, header := range files {
		if err := validation.ValidateUploadFilename(header.Filename); err != nil {
			a.errs.Respond(w, r, err)
			return
		}
	}

	created := make([]map[string]interface{}, 0, len(files))
	for _, header := range files {
		job := &models.Job{
			UUID:     uuid.NewString(),
			Username: p.User.Username,
			Filename: filepath.Base(header.Filename),
			Status:   models.JobStatusUploaded,
		}
		if err := a.storeUpload(header, job); err != nil {
			a.errs.Respond(w, r, err)
			return
		}
		if err := a.jobs.Create(ctx, job); err != nil {
			a.errs.Respond(w, r, err)
			return
		}
		a.broadcastJobStatus(job)
		created = append(created, job.APIView())
	}

	a.logger.Info("files uploaded", map[string]interface{}{
		"username": p.User.Username,
		"count":    len(created),
	})
	a.writeJSON(w, http.StatusCreated, map[string]interface{}{"jobs": created})
}

func (a *API) storeUpload(header *multipart.FileHeader, job *models.Job) error {
	src, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", err.Error())
	}
	defer src.Close()

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		return apperrors.NewInternalError("failed to prepare upload directory", err)
	}

	dst, err := os.Create(filepath.Join(a.uploadDir, job.UUID+filepath.Ext(job.Filename)))
	if err != nil {
		return apperrors.NewInternalError("failed to store upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.NewInternalError("failed to store upload", err)
	}
	return nil
}

// handleGetJob returns a single job owned by the caller.
func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	job, err := a.jobs.GetForUser(r.Context(), chi.URLParam(r, "uuid"), p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, job.APIView())
}

// handleStartJob queues an uploaded job for transcription after checking
// the group quota.
func (a *API) handleStartJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)
	jobUUID := chi.URLParam(r, "uuid")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.StartTranscriptionSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	var req models.StartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	// Ownership check before any state change.
	if _, err := a.jobs.GetForUser(ctx, jobUUID, p.User.Username); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	if err := a.checkQuota(r, p.User.Username); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	if err := a.jobs.MarkQueued(ctx, jobUUID, req); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	job, err := a.jobs.GetForUser(ctx, jobUUID, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.broadcastJobStatus(job)
	a.writeJSON(w, http.StatusOK, job.APIView())
}

// checkQuota rejects new transcriptions once the caller's group has used
// up its allowance. Users without a group and groups with a zero quota
// are unlimited.
func (a *API) checkQuota(r *http.Request, username string) error {
	ctx := r.Context()

	group, err := a.groups.GroupForUser(ctx, username)
	if err != nil {
		return err
	}
	if group == nil || group.Unlimited() {
		return nil
	}

	consumed, err := a.groups.ConsumedSeconds(ctx, group.ID)
	if err != nil {
		return err
	}
	if consumed >= float64(group.QuotaSeconds) {
		return apperrors.NewQuotaExceededError(fmt.Sprintf(
			"group %s has used %.0f of %d quota minutes",
			group.Name, consumed/60, group.QuotaMinutes()))
	}
	return nil
}

// handleDeleteJob removes a job, its stored result and its search index
// entry.
func (a *API) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)
	jobUUID := chi.URLParam(r, "uuid")

	if err := a.jobs.Delete(ctx, jobUUID, p.User.Username); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if err := a.index.DeleteJob(ctx, jobUUID); err != nil {
		a.logger.WithError(err).Warn("failed to remove search index entry", map[string]interface{}{
			"uuid": jobUUID,
		})
	}

	if path, err := a.uploadPath(jobUUID); err == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.WithError(err).Warn("failed to remove uploaded file", map[string]interface{}{
				"uuid": jobUUID,
			})
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) uploadPath(jobUUID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(a.uploadDir, jobUUID+".*"))
	if err != nil || len(matches) == 0 {
		return "", os.ErrNotExist
	}
	return matches[0], nil
}

type workerStatusRequest struct {
	Status models.JobStatus `json:"status"`
	Error  string           `json:"error"`
}

// handleWorkerStatus is the worker callback for in-flight transitions
// (pending to in_progress, and failures).
func (a *API) handleWorkerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobUUID := chi.URLParam(r, "uuid")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.WorkerStatusSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	var req workerStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := a.jobs.UpdateStatus(ctx, jobUUID, req.Status, req.Error); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	job, err := a.jobs.Get(ctx, jobUUID)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.broadcastJobStatus(job)
	if a.obs != nil {
		a.obs.RecordJobProcessed(ctx, string(job.Status))
	}

	if job.Status == models.JobStatusFailed {
		if user, err := a.users.Get(ctx, job.Username); err == nil {
			a.notifier.JobFinished(ctx, user, job)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

type workerResultRequest struct {
	Result          string  `json:"result"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// handleStoreResult is the worker callback delivering a finished
// transcript. It completes the job, schedules its deletion, feeds the
// search index and notifies the owner.
func (a *API) handleStoreResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobUUID := chi.URLParam(r, "uuid")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.WorkerResultSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	var req workerResultRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	deletionDate := time.Now().UTC().Add(resultRetention)
	if err := a.jobs.StoreResult(ctx, jobUUID, req.Result, req.DurationSeconds, deletionDate); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	job, err := a.jobs.Get(ctx, jobUUID)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.broadcastJobStatus(job)
	a.indexResult(r, job, req.Result)
	if a.obs != nil {
		a.obs.RecordJobProcessed(ctx, string(job.Status))
		a.obs.RecordJobDuration(ctx,
			time.Duration(req.DurationSeconds*float64(time.Second)), string(job.Status))
	}

	if user, err := a.users.Get(ctx, job.Username); err == nil {
		a.notifier.JobFinished(ctx, user, job)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetResult returns the stored transcript in its native format.
func (a *API) handleGetResult(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	result, err := a.jobs.Result(r.Context(), chi.URLParam(r, "uuid"), p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

type updateResultRequest struct {
	Result string `json:"result"`
}

// handleUpdateResult saves an edited transcript and refreshes the search
// index.
func (a *API) handleUpdateResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)
	jobUUID := chi.URLParam(r, "uuid")

	var req updateResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}
	if req.Result == "" {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"empty result", "the result field is required"))
		return
	}

	if err := a.jobs.UpdateResult(ctx, jobUUID, p.User.Username, req.Result); err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	job, err := a.jobs.GetForUser(ctx, jobUUID, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.indexResult(r, job, req.Result)

	a.writeJSON(w, http.StatusOK, map[string]string{"status": "result saved"})
}

// exportContentTypes enumerates the downloadable transcript formats.
var exportContentTypes = map[string]string{
	"srt":  "application/x-subrip",
	"vtt":  "text/vtt",
	"txt":  "text/plain; charset=utf-8",
	"rtf":  "application/rtf",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
	"json": "application/json",
}

// handleExportSRT streams the transcript as an SRT file.
func (a *API) handleExportSRT(w http.ResponseWriter, r *http.Request) {
	a.exportResult(w, r, "srt")
}

// handleExportTXT streams the transcript as plain text.
func (a *API) handleExportTXT(w http.ResponseWriter, r *http.Request) {
	a.exportResult(w, r, "txt")
}

// handleExportResult streams the transcript in the format named by the
// format query parameter.
func (a *API) handleExportResult(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if _, ok := exportContentTypes[format]; !ok {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"unsupported export format", format))
		return
	}
	a.exportResult(w, r, format)
}

func (a *API) exportResult(w http.ResponseWriter, r *http.Request, format string) {
	ctx := r.Context()
	p := principalFrom(r)
	jobUUID := chi.URLParam(r, "uuid")

	job, err := a.jobs.GetForUser(ctx, jobUUID, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	result, err := a.jobs.Result(ctx, jobUUID, p.User.Username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	doc, err := parseResult(job, result)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	cfg := subtitle.DefaultExportConfig()
	var body string
	switch format {
	case "srt":
		body = doc.ExportSRT()
	case "vtt":
		body = doc.ExportVTT()
	case "rtf":
		body = doc.ExportRTF(cfg)
	case "csv":
		body = doc.ExportCSV(cfg)
	case "tsv":
		body = doc.ExportTSV(cfg)
	case "json":
		payload, err := doc.ExportJSON(cfg)
		if err != nil {
			a.errs.Respond(w, r, apperrors.NewInternalError("failed to export transcript", err))
			return
		}
		body = string(payload)
	default:
		body = doc.ExportTXT(nil)
	}

	base := job.Filename[:len(job.Filename)-len(filepath.Ext(job.Filename))]
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", base+"."+format))
	a.writeText(w, exportContentTypes[format], body)
}

// parseResult interprets a stored result by the job's output format: SRT
// jobs store raw SRT, TXT jobs store the segment list as JSON.
func parseResult(job *models.Job, result string) (*subtitle.Document, error) {
	if job.OutputFormat == "srt" {
		return subtitle.ParseSRT(result), nil
	}
	return subtitle.ParseSegments([]byte(result))
}

// indexResult feeds the transcript's plain text to the search index.
// Index failures are logged; the transcript itself is already safe.
func (a *API) indexResult(r *http.Request, job *models.Job, result string) {
	doc, err := parseResult(job, result)
	if err != nil {
		a.logger.WithError(err).Warn("failed to parse result for indexing", map[string]interface{}{
			"uuid": job.UUID,
		})
		return
	}
	if err := a.index.IndexJob(r.Context(), job, doc.FullText()); err != nil {
		a.logger.WithError(err).Warn("failed to index transcript", map[string]interface{}{
			"uuid": job.UUID,
		})
	}
}

// handleSearchJobs runs a full-text query over the caller's transcripts.
func (a *API) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	query := r.URL.Query().Get("q")
	if query == "" {
		a.errs.Respond(w, r, apperrors.NewValidationError(
			"missing search query", "the q query parameter is required"))
		return
	}
	from, _ := strconv.Atoi(r.URL.Query().Get("from"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	hits, total, err := a.index.Search(r.Context(), p.User.Username, query, from, size)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"total": total,
	})
}

// broadcastJobStatus pushes a status update into the owner's websocket
// room.
func (a *API) broadcastJobStatus(job *models.Job) {
	msg, err := json.Marshal(map[string]interface{}{
		"uuid":     job.UUID,
		"filename": job.Filename,
		"status":   job.Status.DisplayStatus(),
	})
	if err != nil {
		return
	}
	a.hub.SendToUser(job.Username, msg)
}
