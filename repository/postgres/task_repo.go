package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}

	// The existence check and the insert run inside one transaction so two
	// concurrent creates with the same (owner, title) cannot both succeed.
	// The unique index backs this up at the storage level.
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE user_id = $1 AND title = $2)`,
		task.Owner, task.Title,
	).Scan(&exists); err != nil {
		return nil, classify(err)
	}
	if exists {
		return nil, domain.ErrTaskTitleTaken
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		task.ID,
		task.Owner,
		task.Title,
		task.Description,
		task.Status,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id, owner string) (*domain.Task, error) {
	const query = `
	SELECT id, user_id, title, description, status, created_at, updated_at
	FROM tasks
	WHERE id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, owner)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, owner string, page, pageSize int) (int64, []domain.Task, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1`, owner,
	).Scan(&total); err != nil {
		return 0, nil, classify(err)
	}

	const query = `
	SELECT id, user_id, title, description, status, created_at, updated_at
	FROM tasks
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, owner, pageSize, (page-1)*pageSize)
	if err != nil {
		return 0, nil, classify(err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, pageSize)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return 0, nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, classify(err)
	}
	return total, tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id, owner string, patch repository.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id, owner)
	}

	const query = `
	UPDATE tasks
	SET title = COALESCE($3, title),
		description = COALESCE($4, description),
		status = COALESCE($5, status),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, title, description, status, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query, id, owner, patch.Title, patch.Description, patch.Status)
	return scanTask(row)
}

func (r *taskRepository) Delete(ctx context.Context, id, owner string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Owner,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, classify(err)
	}
	return &task, nil
}
