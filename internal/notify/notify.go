// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"scribe-api/internal/common/logger"
	"scribe-api/internal/common/metrics"
	"scribe-api/internal/models"
)

// Sender is the part of the SES client the notifier needs.
type Sender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Notifier sends account and job emails through SES. Delivery failures
// are logged and swallowed; mail must never fail the request that
// triggered it.
type Notifier struct {
	sender Sender
	from   string
	logger logger.Logger
}

// New returns a notifier sending from the given address.
func New(sender Sender, from string, log logger.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// JobFinished tells a user their transcription completed or failed,
// honoring the notify_on_job preference.
func (n *Notifier) JobFinished(ctx context.Context, user *models.User, job *models.Job) {
	if !user.NotifyOnJob {
		return
	}

	subject := fmt.Sprintf("Transcription of %s finished", job.Filename)
	body := fmt.Sprintf("Your transcription of %s is ready for download.", job.Filename)
	if job.Status == models.JobStatusFailed {
		subject = fmt.Sprintf("Transcription of %s failed", job.Filename)
		body = fmt.Sprintf("Your transcription of %s failed: %s", job.Filename, job.Error)
	}

	n.send(ctx, "job", user.Email, subject, body)
}

// DeletionReminder warns a user their transcript is about to be removed,
// honoring the notify_on_deletion preference.
func (n *Notifier) DeletionReminder(ctx context.Context, user *models.User, job *models.Job) {
	if !user.NotifyOnDeletion || job.DeletionDate == nil {
		return
	}

	subject := fmt.Sprintf("Transcript of %s scheduled for deletion", job.Filename)
	body := fmt.Sprintf(
		"The transcript of %s will be deleted on %s. Download it before then if you want to keep it.",
		job.Filename, job.DeletionDate.Format("2006-01-02"))

	n.send(ctx, "deletion", user.Email, subject, body)
}

// AccountActivated tells a user an administrator enabled their account.
func (n *Notifier) AccountActivated(ctx context.Context, user *models.User) {
	n.send(ctx, "user", user.Email,
		"Your transcription account is active",
		"An administrator activated your account. You can now upload files for transcription.")
}

// UserSignedUp tells an administrator a new account registered and is
// waiting for activation, honoring the admin's notify_on_user preference.
func (n *Notifier) UserSignedUp(ctx context.Context, admin, newUser *models.User) {
	if !admin.NotifyOnUser {
		return
	}

	subject := fmt.Sprintf("New user %s signed up", newUser.Username)
	body := fmt.Sprintf("%s (%s) from realm %s registered and is waiting for activation.",
		newUser.Username, newUser.Email, newUser.Realm)

	n.send(ctx, "user", admin.Email, subject, body)
}

func (n *Notifier) send(ctx context.Context, kind, to, subject, body string) {
	if to == "" {
		return
	}

	_, err := n.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(kind, "error").Inc()
		n.logger.WithError(err).Warn("failed to send notification email", map[string]interface{}{
			"kind":      kind,
			"recipient": to,
		})
		return
	}

	metrics.NotificationsSent.WithLabelValues(kind, "ok").Inc()
}
