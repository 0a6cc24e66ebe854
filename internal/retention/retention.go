// internal/retention/retention.go
package retention

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"scribe-api/internal/common/logger"
	"scribe-api/internal/models"
	"scribe-api/internal/notify"
	"scribe-api/internal/search"
	"scribe-api/internal/store"
)

const (
	// DefaultInterval is how often the reaper sweeps for expiring jobs.
	DefaultInterval = time.Hour

	// reminderWindow is how far ahead of the deletion date the owner is
	// warned. A reminder goes out once, when the deadline crosses into
	// the window between two sweeps.
	reminderWindow = 72 * time.Hour
)

// Reaper purges transcripts whose retention window has passed and warns
// owners shortly before it does.
type Reaper struct {
	jobs      *store.JobStore
	users     *store.UserStore
	index     *search.TranscriptIndex
	notifier  *notify.Notifier
	uploadDir string
	interval  time.Duration
	logger    logger.Logger
}

// Deps bundles what the reaper needs.
type Deps struct {
	Jobs      *store.JobStore
	Users     *store.UserStore
	Index     *search.TranscriptIndex
	Notifier  *notify.Notifier
	UploadDir string
	Interval  time.Duration
	Logger    logger.Logger
}

// NewReaper builds a reaper from its dependencies.
func NewReaper(deps Deps) *Reaper {
	interval := deps.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{
		jobs:      deps.Jobs,
		users:     deps.Users,
		index:     deps.Index,
		notifier:  deps.Notifier,
		uploadDir: deps.UploadDir,
		interval:  interval,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "retention"}),
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx, time.Now()); err != nil {
				r.logger.WithError(err).Error("retention sweep failed", nil)
			}
		}
	}
}

// Sweep processes every job whose deletion date falls inside the
// reminder window: expired transcripts are purged, the rest get a
// reminder the first sweep after their deadline enters the window.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) error {
	due, err := r.jobs.DueForDeletion(ctx, now.Add(reminderWindow))
	if err != nil {
		return err
	}

	windowStart := now.Add(reminderWindow - r.interval)
	for _, job := range due {
		if job.DeletionDate == nil {
			continue
		}
		switch {
		case !job.DeletionDate.After(now):
			r.purge(ctx, job)
		case job.DeletionDate.After(windowStart):
			r.remind(ctx, job)
		}
	}
	return nil
}

func (r *Reaper) purge(ctx context.Context, job *models.Job) {
	if err := r.jobs.ClearResult(ctx, job.UUID); err != nil {
		r.logger.WithError(err).Error("failed to purge expired transcript", map[string]interface{}{
			"uuid": job.UUID,
		})
		return
	}
	if r.index != nil {
		if err := r.index.DeleteJob(ctx, job.UUID); err != nil {
			r.logger.WithError(err).Warn("failed to drop expired transcript from index", map[string]interface{}{
				"uuid": job.UUID,
			})
		}
	}
	r.removeUpload(job.UUID)

	r.logger.Info("purged expired transcript", map[string]interface{}{
		"uuid":     job.UUID,
		"username": job.Username,
	})
}

func (r *Reaper) remind(ctx context.Context, job *models.Job) {
	user, err := r.users.Get(ctx, job.Username)
	if err != nil {
		r.logger.WithError(err).Warn("failed to load owner for deletion reminder", map[string]interface{}{
			"uuid":     job.UUID,
			"username": job.Username,
		})
		return
	}
	r.notifier.DeletionReminder(ctx, user, job)
}

func (r *Reaper) removeUpload(uuid string) {
	if r.uploadDir == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(r.uploadDir, uuid+".*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.WithError(err).Warn("failed to remove expired upload", map[string]interface{}{
				"path": path,
			})
		}
	}
}
