package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tasknest/backend/internal/infrastructure/outbox"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Processor drains the notification outbox on a schedule and hands jobs to
// the mailer. A job that keeps failing is dropped after MaxRetries; nothing
// ever propagates back to the request that created it.
type Processor struct {
	store  *outbox.Store
	mailer Mailer
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ProcessorConfig
}

func NewProcessor(store *outbox.Store, mailer Mailer, logger *zap.Logger, cfg ProcessorConfig) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Processor{
		store:  store,
		mailer: mailer,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		if err := p.Drain(); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *Processor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("notification processor started")
}

// Stop gracefully stops the scheduler.
func (p *Processor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("notification processor stopped")
}

// Drain delivers pending jobs synchronously.
func (p *Processor) Drain() error {
	if p == nil || p.store == nil {
		return nil
	}

	jobs, err := p.store.GetBatch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := p.mailer.Send(job.Subject, job.Body, job.To); err != nil {
			p.logger.Error("notification send failed",
				zap.String("job_id", job.ID),
				zap.String("to", job.To),
				zap.Error(err))

			job.Retries++
			if job.Retries >= p.cfg.MaxRetries {
				p.logger.Warn("dropping notification (max retries reached)", zap.String("job_id", job.ID))
				_ = p.store.Remove(job)
				continue
			}

			if err := p.store.Remove(job); err != nil {
				p.logger.Warn("failed to remove outbox job", zap.Error(err))
			}
			if err := p.store.Requeue(job); err != nil {
				p.logger.Error("failed to requeue outbox job", zap.Error(err))
			}
			continue
		}

		p.logger.Info("notification sent", zap.String("job_id", job.ID))
		if err := p.store.Remove(job); err != nil {
			p.logger.Warn("failed to purge delivered job", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of pending jobs.
func (p *Processor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}
