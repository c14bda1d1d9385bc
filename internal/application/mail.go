package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/mailer"
)

// Notifier queues templated emails. A nil Publisher disables it.
type Notifier struct {
	Publisher MailPublisher
	Metrics   *observability.Metrics
	Logger    *logrus.Logger
}

// Enqueue never fails the caller; errors are logged and counted.
func (n *Notifier) Enqueue(ctx context.Context, to, template string, data map[string]any) {
	if n == nil || n.Publisher == nil || to == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	status := "ok"
	if err := n.Publisher.PublishJSON(c, mailer.EmailJob{To: to, Template: template, Data: data}); err != nil {
		status = "error"
		if n.Logger != nil {
			n.Logger.WithError(err).WithField("template", template).Warn("enqueue email failed")
		}
	}
	if n.Metrics != nil {
		n.Metrics.MailJobs.WithLabelValues(template, status).Inc()
	}
}
