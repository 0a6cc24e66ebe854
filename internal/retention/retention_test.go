// internal/retention/retention_test.go
package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-api/internal/common/database"
	"scribe-api/internal/common/logger"
	"scribe-api/internal/notify"
	"scribe-api/internal/store"
)

type fakeSender struct {
	sent []*ses.SendEmailInput
}

func (f *fakeSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.sent = append(f.sent, input)
	return &ses.SendEmailOutput{}, nil
}

type fixture struct {
	reaper    *Reaper
	mock      sqlmock.Sqlmock
	sender    *fakeSender
	uploadDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pg := &database.PostgresClient{DB: db}
	sender := &fakeSender{}
	uploadDir := t.TempDir()

	reaper := NewReaper(Deps{
		Jobs:      store.NewJobStore(pg),
		Users:     store.NewUserStore(pg),
		Notifier:  notify.New(sender, "noreply@scribe.example", logger.NewTestLogger(t)),
		UploadDir: uploadDir,
		Interval:  time.Hour,
		Logger:    logger.NewTestLogger(t),
	})

	return &fixture{reaper: reaper, mock: mock, sender: sender, uploadDir: uploadDir}
}

func jobRow(uuid, username string, deletionDate time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"uuid", "username", "filename", "language", "model", "speakers", "status",
		"output_format", "duration_seconds", "error", "created_at", "updated_at",
		"deletion_date",
	}).AddRow(uuid, username, "talk.mp3", "en", "base", 2, "completed",
		"srt", 120.0, "", now, now, deletionDate)
}

func TestSweepPurgesExpiredTranscript(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	upload := filepath.Join(f.uploadDir, "job-1.mp3")
	require.NoError(t, os.WriteFile(upload, []byte("audio"), 0o600))

	f.mock.ExpectQuery(`deletion_date IS NOT NULL AND deletion_date <= \$1`).
		WillReturnRows(jobRow("job-1", "alice", now.Add(-time.Hour)))
	f.mock.ExpectExec(`UPDATE jobs SET result = NULL, deletion_date = NULL`).
		WithArgs("job-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, f.reaper.Sweep(context.Background(), now))

	assert.NoFileExists(t, upload)
	assert.Empty(t, f.sender.sent)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSweepRemindsBeforeDeletion(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	f.mock.ExpectQuery(`deletion_date IS NOT NULL AND deletion_date <= \$1`).
		WillReturnRows(jobRow("job-2", "alice", now.Add(reminderWindow-30*time.Minute)))
	f.mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{
			"username", "email", "realm", "active", "admin", "admin_domains",
			"notify_on_job", "notify_on_deletion", "notify_on_user",
			"created_at", "last_seen_at",
		}).AddRow("alice", "alice@example.org", "example.org", true, false, "{}",
			true, true, false, now, now))

	require.NoError(t, f.reaper.Sweep(context.Background(), now))

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, *f.sender.sent[0].Message.Subject.Data, "talk.mp3")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSweepRemindsOnlyOnceInsideWindow(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	// Deadline entered the window on an earlier sweep; no second mail.
	f.mock.ExpectQuery(`deletion_date IS NOT NULL AND deletion_date <= \$1`).
		WillReturnRows(jobRow("job-3", "alice", now.Add(48*time.Hour)))

	require.NoError(t, f.reaper.Sweep(context.Background(), now))

	assert.Empty(t, f.sender.sent)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSweepEmpty(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`deletion_date IS NOT NULL AND deletion_date <= \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"uuid"}))

	require.NoError(t, f.reaper.Sweep(context.Background(), time.Now()))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
