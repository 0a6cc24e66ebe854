// internal/models/group.go
package models

// Group is a set of users sharing a transcription quota. QuotaSeconds is the
// allowance in seconds; zero means unlimited.
type Group struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Realm        string   `json:"realm"`
	QuotaSeconds int64    `json:"quota_seconds"`
	Members      []string `json:"members,omitempty"`
}

// QuotaMinutes returns the allowance in whole minutes for display.
func (g Group) QuotaMinutes() int64 {
	return g.QuotaSeconds / 60
}

// Unlimited reports whether the group has no quota cap.
func (g Group) Unlimited() bool {
	return g.QuotaSeconds == 0
}

// GroupStats aggregates usage for a group.
type GroupStats struct {
	GroupID                    int64   `json:"group_id"`
	TranscribedFiles           int64   `json:"transcribed_files"`
	TotalTranscribedMinutes    float64 `json:"total_transcribed_minutes"`
	TranscribedFilesLastMonth  int64   `json:"transcribed_files_last_month"`
	TranscribedMinutesLastMonth float64 `json:"total_transcribed_minutes_last_month"`
}

// GroupWrite is the payload for creating or updating a group. Quota is
// entered in minutes and stored in seconds.
type GroupWrite struct {
	Name         string   `json:"name"`
	Realm        string   `json:"realm"`
	QuotaMinutes int64    `json:"quota_minutes"`
	Members      []string `json:"members,omitempty"`
}
