package domain

import "time"

// Task statuses. The set is closed; anything else is rejected at the API boundary.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

// MaxTitleLength bounds the task title column.
const MaxTitleLength = 255

// Task represents one unit of work owned by exactly one user.
// Owner and timestamps stay internal; responses expose id, title,
// description and status only.
type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TaskPage is a paginated task listing. It is also the payload stored in the
// listing cache, so its JSON shape is the wire shape.
type TaskPage struct {
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Items    []Task `json:"items"`
}

// ValidStatus reports whether s belongs to the closed status set.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}
