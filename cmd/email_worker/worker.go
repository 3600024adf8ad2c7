package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/pkg/helpers"
	"github.com/oksasatya/feedback-hub/pkg/mailer"
	mailtpl "github.com/oksasatya/feedback-hub/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// outcome tells the consumer loop how to settle a delivery
type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

type worker struct {
	sender mailer.Sender
	logger *logrus.Logger
}

// render fills subject/text/html from the job's template, or keeps the
// pre-rendered fields when no template is named.
func render(job *mailer.EmailJob) (subject, text, html string, err error) {
	helpers.EnsureRecipientAndEmail(job)
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", errors.New("job has neither template nor body")
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("render %s: %w", job.Template, err)
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	if subject == "" {
		subject = helpers.SubjectForTemplate(job.Template)
	}
	return subject, text, html, nil
}

// handle processes one queue message. Malformed jobs are dropped; send
// failures are requeued.
func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return drop
	}
	if job.To == "" {
		w.logger.Warn("job without recipient")
		return drop
	}
	log := w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	subject, text, html, err := render(&job)
	if err != nil {
		log.WithError(err).Warn("render failed")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		log.WithError(err).Error("send failed")
		return requeue
	}
	log.Info("email sent")
	return ack
}
