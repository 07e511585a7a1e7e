package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/infrastructure/outbox"
	"github.com/tasknest/backend/usecase"
)

// TemplateConfig carries the notification template and recipient.
type TemplateConfig struct {
	Subject string
	Body    string
	To      string
}

// Dispatcher enqueues email jobs into the durable outbox. The request path
// only pays for a local Bolt write; delivery happens in the background.
type Dispatcher struct {
	store  *outbox.Store
	tmpl   TemplateConfig
	logger *zap.Logger
}

func NewDispatcher(store *outbox.Store, tmpl TemplateConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:  store,
		tmpl:   tmpl,
		logger: logger,
	}
}

func (d *Dispatcher) TaskCreated(ctx context.Context, task *domain.Task) error {
	if d.store == nil || d.tmpl.To == "" {
		return nil
	}
	job := outbox.Job{
		Subject: d.tmpl.Subject,
		Body:    d.tmpl.Body,
		To:      d.tmpl.To,
	}
	if err := d.store.Enqueue(job); err != nil {
		return err
	}
	d.logger.Debug("notification enqueued", zap.String("task_id", task.ID))
	return nil
}

var _ usecase.Notifier = (*Dispatcher)(nil)
