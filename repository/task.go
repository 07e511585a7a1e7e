package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
}

// IsEmpty reports whether the patch carries no changes.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// TaskRepository is the durable task store. Every read and write is scoped to
// the owning principal; a task owned by someone else is indistinguishable from
// a missing one.
type TaskRepository interface {
	// Create inserts a task, enforcing (owner, title) uniqueness atomically.
	// Returns domain.ErrTaskTitleTaken on a duplicate title for the owner.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// GetByID returns domain.ErrTaskNotFound for missing or not-owned ids.
	GetByID(ctx context.Context, id, owner string) (*domain.Task, error)
	// List returns the owner's tasks ordered by creation time descending,
	// together with the total count across all pages.
	List(ctx context.Context, owner string, page, pageSize int) (int64, []domain.Task, error)
	// Update applies the non-nil patch fields and refreshes updated_at.
	Update(ctx context.Context, id, owner string, patch TaskPatch) (*domain.Task, error)
	// Delete removes the task permanently. A second delete reports not-found.
	Delete(ctx context.Context, id, owner string) error
}
