package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	"github.com/oksasatya/feedback-hub/pkg/mailer"
	mailtpl "github.com/oksasatya/feedback-hub/pkg/mailer/templates"
)

// JobPublisher puts one JSON job on the email queue
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier enqueues email jobs. Every failure is logged and swallowed; a nil
// Notifier or publisher silently drops jobs.
type Notifier struct {
	pub      JobPublisher
	branding mailtpl.Branding
	logger   *logrus.Logger
	timeout  time.Duration
}

func NewNotifier(pub JobPublisher, branding mailtpl.Branding, logger *logrus.Logger) *Notifier {
	return &Notifier{pub: pub, branding: branding, logger: logger, timeout: 3 * time.Second}
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) {
	if n == nil || n.pub == nil || job.To == "" {
		return
	}
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.PublishJSON(c, job); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Warn("email job publish failed")
	}
}

// FeedbackReceived tells the recipient about a new feedback and their new rating
func (n *Notifier) FeedbackReceived(ctx context.Context, name, email string, feedbackID string, reviewerID int64, grade int, text string, rating entity.Rating, at time.Time) {
	if n == nil {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       email,
		Template: mailtpl.FeedbackReceived,
		Data: mailtpl.NewFeedbackReceivedData(n.branding, name, email,
			mailtpl.WithFeedback(feedbackID, reviewerID, grade, text),
			mailtpl.WithRating(rating.AverageRating, rating.NumberReviewers),
			mailtpl.WithTime(at),
		),
	})
}

// Welcome greets a newly created user
func (n *Notifier) Welcome(ctx context.Context, id int64, name, email string) {
	if n == nil {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(n.branding, name, email, mailtpl.WithUserID(id)),
	})
}
