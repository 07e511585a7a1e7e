package usecase

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// Notifier dispatches a best-effort notification after a task was durably
// created. Failures never surface to the create response.
type Notifier interface {
	TaskCreated(ctx context.Context, task *domain.Task) error
}
