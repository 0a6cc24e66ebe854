// internal/models/job.go
package models

import "time"

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusUploaded   JobStatus = "uploaded"
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// DisplayStatus maps internal statuses to the labels shown to users.
// in_progress is presented as transcribing.
func (s JobStatus) DisplayStatus() string {
	if s == JobStatusInProgress {
		return "transcribing"
	}
	return string(s)
}

// Job is one uploaded media file and its transcription state.
type Job struct {
	UUID            string     `json:"uuid"`
	Username        string     `json:"username"`
	Filename        string     `json:"filename"`
	Language        string     `json:"language,omitempty"`
	Model           string     `json:"model,omitempty"`
	Speakers        int        `json:"speakers,omitempty"`
	Status          JobStatus  `json:"-"`
	OutputFormat    string     `json:"output_format,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletionDate    *time.Time `json:"deletion_date,omitempty"`
}

// APIView returns the job with its display status, the shape handlers encode.
func (j Job) APIView() map[string]interface{} {
	view := map[string]interface{}{
		"uuid":       j.UUID,
		"filename":   j.Filename,
		"status":     j.Status.DisplayStatus(),
		"created_at": j.CreatedAt,
	}
	if j.Language != "" {
		view["language"] = j.Language
	}
	if j.Model != "" {
		view["model"] = j.Model
	}
	if j.Speakers > 0 {
		view["speakers"] = j.Speakers
	}
	if j.OutputFormat != "" {
		view["output_format"] = j.OutputFormat
	}
	if j.DurationSeconds > 0 {
		view["duration_seconds"] = j.DurationSeconds
	}
	if j.Error != "" {
		view["error"] = j.Error
	}
	if j.DeletionDate != nil {
		view["deletion_date"] = j.DeletionDate
	}
	return view
}

// StartRequest is the payload accepted when a job is queued for transcription.
type StartRequest struct {
	Language     string `json:"language"`
	Model        string `json:"model"`
	Speakers     int    `json:"speakers"`
	OutputFormat string `json:"output_format"`
}
