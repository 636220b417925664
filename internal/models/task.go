package models

import "time"

// TaskStatus is the closed set of task states.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Status      TaskStatus     `json:"status"`
	Attachments AttachmentList `json:"attachments"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TaskStats holds per-owner task counts.
type TaskStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
}

// DueTask is a pending task approaching its due date, joined with its owner
// for reminder delivery.
type DueTask struct {
	TaskID   int64
	Title    string
	DueDate  time.Time
	Username string
	Email    string
}
