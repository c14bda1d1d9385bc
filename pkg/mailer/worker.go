package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

// Sender delivers one rendered email. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// ErrPermanent marks a job that must not be retried.
var ErrPermanent = errors.New("mailer: permanent failure")

// Worker turns queued EmailJobs into sent mail.
type Worker struct {
	Sender  Sender
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewWorker(s Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: s, Logger: logger, Timeout: 15 * time.Second}
}

// Process decodes, renders and sends one job. Errors wrapping ErrPermanent
// (bad JSON, unknown template, no recipient) should be dropped; anything
// else may be requeued.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return errors.Join(ErrPermanent, err)
	}
	if job.To == "" {
		return errors.Join(ErrPermanent, errors.New("job has no recipient"))
	}
	job.EnsureRecipient()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return errors.Join(ErrPermanent, err)
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return err
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return nil
}
