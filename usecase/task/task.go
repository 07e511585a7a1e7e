package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UseCase orchestrates the task store, the listing cache and the notification
// dispatcher for every endpoint.
type UseCase struct {
	tasks    repository.TaskRepository
	cache    repository.ListingCache
	notifier usecase.Notifier
	cacheTTL time.Duration
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	cache repository.ListingCache,
	notifier usecase.Notifier,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		cache:    cache,
		notifier: notifier,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ListingCacheKey is deterministic over principal identity and pagination.
func ListingCacheKey(owner string, page, pageSize int) string {
	return fmt.Sprintf("user:%s:tasks:%d:%d", owner, page, pageSize)
}

// ListingCachePattern matches every cached page for the owner.
func ListingCachePattern(owner string) string {
	return fmt.Sprintf("user:%s:tasks:*", owner)
}

// Create inserts a task for the owner and fires the notification only after
// the insert is durably committed.
func (uc *UseCase) Create(ctx context.Context, owner, title, description, status string) (*domain.Task, error) {
	if title == "" || len(title) > domain.MaxTitleLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title must be between 1 and 255 characters")
	}
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.ValidStatus(status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invalid status")
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		Owner:       owner,
		Title:       title,
		Description: description,
		Status:      status,
	})
	if err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		if err := uc.notifier.TaskCreated(ctx, created); err != nil {
			uc.logger.Warn("task created notification failed", zap.String("task_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// Get returns the owner's task or ErrTaskNotFound, indistinguishably for
// missing and not-owned ids.
func (uc *UseCase) Get(ctx context.Context, id, owner string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id, owner)
}

// List returns the serialized paginated listing for the owner. A cache hit is
// returned verbatim, bypassing the store and re-serialization; a miss queries
// the store and populates the cache with the configured TTL. Cache failures
// are logged and ignored, the store stays authoritative.
func (uc *UseCase) List(ctx context.Context, owner string, page, pageSize int) ([]byte, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	key := ListingCacheKey(owner, page, pageSize)
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	total, items, err := uc.tasks.List(ctx, owner, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Task{}
	}

	payload, err := json.Marshal(domain.TaskPage{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, payload, uc.cacheTTL); err != nil {
			uc.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return payload, nil
}

// Update applies the non-nil patch fields to the owner's task.
func (uc *UseCase) Update(ctx context.Context, id, owner string, patch repository.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil && (*patch.Title == "" || len(*patch.Title) > domain.MaxTitleLength) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title must be between 1 and 255 characters")
	}
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "invalid status")
	}
	return uc.tasks.Update(ctx, id, owner, patch)
}

// Delete removes the owner's task permanently.
func (uc *UseCase) Delete(ctx context.Context, id, owner string) error {
	return uc.tasks.Delete(ctx, id, owner)
}
