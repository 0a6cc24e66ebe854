// internal/store/jobs.go
package store

import (
	"context"
	"database/sql"
	"time"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/metrics"
	"scribe-api/internal/models"
)

// JobStore persists transcription jobs and their results in Postgres.
type JobStore struct {
	db *database.PostgresClient
}

// NewJobStore returns a job store on the given database.
func NewJobStore(db *database.PostgresClient) *JobStore {
	return &JobStore{db: db}
}

const jobColumns = `uuid, username, filename, language, model, speakers, status,
	output_format, duration_seconds, error, created_at, updated_at, deletion_date`

// Create inserts a freshly uploaded job, stamping its creation time.
func (s *JobStore) Create(ctx context.Context, job *models.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.UpdatedAt = job.CreatedAt

	_, err := s.db.Exec(ctx,
		`INSERT INTO jobs (uuid, username, filename, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		job.UUID, job.Username, job.Filename, string(job.Status), job.CreatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to create job", err)
	}
	metrics.JobTransitions.WithLabelValues(string(job.Status)).Inc()
	return nil
}

// Get loads a job by UUID regardless of owner.
func (s *JobStore) Get(ctx context.Context, uuid string) (*models.Job, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE uuid = $1`, uuid)
	return scanJob(row)
}

// GetForUser loads a job only when it belongs to the given user.
func (s *JobStore) GetForUser(ctx context.Context, uuid, username string) (*models.Job, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE uuid = $1 AND username = $2`,
		uuid, username)
	return scanJob(row)
}

// ListForUser returns the user's jobs, newest first.
func (s *JobStore) ListForUser(ctx context.Context, username string) ([]*models.Job, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE username = $1 ORDER BY created_at DESC`,
		username)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list jobs", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// MarkQueued records the transcription parameters and moves the job from
// uploaded to pending.
func (s *JobStore) MarkQueued(ctx context.Context, uuid string, req models.StartRequest) error {
	result, err := s.db.Exec(ctx,
		`UPDATE jobs SET language = $2, model = $3, speakers = $4, output_format = $5,
		        status = $6, updated_at = $7
		 WHERE uuid = $1 AND status = $8`,
		uuid, req.Language, req.Model, req.Speakers, req.OutputFormat,
		string(models.JobStatusPending), time.Now().UTC(), string(models.JobStatusUploaded))
	if err != nil {
		return apperrors.NewInternalError("failed to queue job", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.NewConflictError("job is not in the uploaded state")
	}
	metrics.JobTransitions.WithLabelValues(string(models.JobStatusPending)).Inc()
	return nil
}

// UpdateStatus transitions a job and records the failure reason when one
// is given.
func (s *JobStore) UpdateStatus(ctx context.Context, uuid string, status models.JobStatus, errMsg string) error {
	result, err := s.db.Exec(ctx,
		`UPDATE jobs SET status = $2, error = $3, updated_at = $4 WHERE uuid = $1`,
		uuid, string(status), errMsg, time.Now().UTC())
	if err != nil {
		return apperrors.NewInternalError("failed to update job status", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("job")
	}
	metrics.JobTransitions.WithLabelValues(string(status)).Inc()
	return nil
}

// StoreResult saves the transcript, records the media duration and marks
// the job completed. The deletion date starts the retention clock.
func (s *JobStore) StoreResult(ctx context.Context, uuid, result string, durationSeconds float64, deletionDate time.Time) error {
	res, err := s.db.Exec(ctx,
		`UPDATE jobs SET result = $2, duration_seconds = $3, status = $4,
		        deletion_date = $5, updated_at = $6
		 WHERE uuid = $1`,
		uuid, result, durationSeconds, string(models.JobStatusCompleted),
		deletionDate, time.Now().UTC())
	if err != nil {
		return apperrors.NewInternalError("failed to store job result", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("job")
	}
	metrics.JobTransitions.WithLabelValues(string(models.JobStatusCompleted)).Inc()
	return nil
}

// UpdateResult overwrites the stored transcript, used when the editor
// saves changes.
func (s *JobStore) UpdateResult(ctx context.Context, uuid, username, result string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE jobs SET result = $3, updated_at = $4 WHERE uuid = $1 AND username = $2`,
		uuid, username, result, time.Now().UTC())
	if err != nil {
		return apperrors.NewInternalError("failed to update job result", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("job")
	}
	return nil
}

// Result returns the stored transcript for a user's job.
func (s *JobStore) Result(ctx context.Context, uuid, username string) (string, error) {
	var result sql.NullString
	err := s.db.QueryRow(ctx,
		`SELECT result FROM jobs WHERE uuid = $1 AND username = $2`,
		uuid, username).Scan(&result)
	if err == sql.ErrNoRows {
		return "", apperrors.NewNotFoundError("job")
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to load job result", err)
	}
	if !result.Valid || result.String == "" {
		return "", apperrors.NewNotFoundError("job result")
	}
	return result.String, nil
}

// Delete removes a user's job.
func (s *JobStore) Delete(ctx context.Context, uuid, username string) error {
	res, err := s.db.Exec(ctx,
		`DELETE FROM jobs WHERE uuid = $1 AND username = $2`, uuid, username)
	if err != nil {
		return apperrors.NewInternalError("failed to delete job", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("job")
	}
	return nil
}

// ClearResult drops an expired transcript, keeping the job row for the
// user's history.
func (s *JobStore) ClearResult(ctx context.Context, uuid string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE jobs SET result = NULL, deletion_date = NULL, updated_at = $2
		 WHERE uuid = $1`,
		uuid, time.Now().UTC())
	if err != nil {
		return apperrors.NewInternalError("failed to clear job result", err)
	}
	return nil
}

// DueForDeletion lists jobs whose retention window has passed.
func (s *JobStore) DueForDeletion(ctx context.Context, now time.Time) ([]*models.Job, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE deletion_date IS NOT NULL AND deletion_date <= $1`, now)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list expiring jobs", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var language, model, outputFormat, errMsg sql.NullString
	var speakers sql.NullInt64
	var duration sql.NullFloat64
	var deletionDate sql.NullTime

	err := row.Scan(&job.UUID, &job.Username, &job.Filename, &language, &model,
		&speakers, &job.Status, &outputFormat, &duration, &errMsg,
		&job.CreatedAt, &job.UpdatedAt, &deletionDate)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("job")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan job", err)
	}

	job.Language = language.String
	job.Model = model.String
	job.Speakers = int(speakers.Int64)
	job.OutputFormat = outputFormat.String
	job.DurationSeconds = duration.Float64
	job.Error = errMsg.String
	if deletionDate.Valid {
		job.DeletionDate = &deletionDate.Time
	}
	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]*models.Job, error) {
	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read jobs", err)
	}
	return jobs, nil
}
