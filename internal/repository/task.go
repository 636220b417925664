package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/models"
)

const taskColumns = `id, user_id, title, description, due_date, status, attachments, created_at, updated_at`

// sortColumns is the allow-list for page-mode ORDER BY. Anything else falls
// back to created_at; user input never reaches the query text directly.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"due_date":   "due_date",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func orderClause(sortBy, sortOrder string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "ASC") {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

// TaskUpdate is the closed set of updatable task fields. Nil means "leave
// unchanged"; ClearDueDate removes the due date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Status       *models.TaskStatus
	Attachments  *models.AttachmentList
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil &&
		!u.ClearDueDate && u.Status == nil && u.Attachments == nil
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	var description sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &description, &dueDate,
		&task.Status, &task.Attachments, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	return task, nil
}

// CreateTask creates a new task in the database
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, due_date, status, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	var description any
	if task.Description != "" {
		description = task.Description
	}
	var dueDate any
	if task.DueDate != nil {
		dueDate = *task.DueDate
	}
	err := r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, description, dueDate, task.Status, task.Attachments).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTaskByID retrieves a task scoped to its owner. A task owned by someone
// else is reported exactly like a missing one.
func (r *Repository) FindTaskByID(ctx context.Context, id, userID int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// TasksByCursor fetches up to limit tasks with id below the cursor, newest
// first. A nil cursor starts from the top.
func (r *Repository) TasksByCursor(ctx context.Context, userID int64, cursor *int64, limit int, status string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if cursor != nil {
		args = append(args, *cursor)
		query += fmt.Sprintf(" AND id < $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	return r.queryTasks(ctx, query, args...)
}

// TasksByPage fetches one page of tasks ordered by an allow-listed column.
func (r *Repository) TasksByPage(ctx context.Context, userID int64, status, sortBy, sortOrder string, limit, offset int) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += orderClause(sortBy, sortOrder)
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryTasks(ctx, query, args...)
}

// AllTasks fetches every task of a user ordered by id ascending.
func (r *Repository) AllTasks(ctx context.Context, userID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY id`
	return r.queryTasks(ctx, query, userID)
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CountTasks counts a user's tasks, optionally filtered by status.
func (r *Repository) CountTasks(ctx context.Context, userID int64, status string) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// UpdateTask applies the supplied fields to an owned task and reports whether
// a row changed.
func (r *Repository) UpdateTask(ctx context.Context, id, userID int64, upd TaskUpdate) (bool, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Attachments != nil {
		add("attachments", *upd.Attachments)
	}
	if len(sets) == 0 {
		return false, nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id, userID)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return affected > 0, nil
}

// DeleteTask hard-deletes an owned task row.
func (r *Repository) DeleteTask(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return affected > 0, nil
}

// AttachmentsByUser collects the attachment lists of all tasks owned by the
// user, used to release files before account deletion.
func (r *Repository) AttachmentsByUser(ctx context.Context, userID int64) ([]models.AttachmentList, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT attachments FROM tasks WHERE user_id = $1 AND attachments IS NOT NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var lists []models.AttachmentList
	for rows.Next() {
		var list models.AttachmentList
		if err := rows.Scan(&list); err != nil {
			return nil, fmt.Errorf("failed to scan attachments: %w", err)
		}
		if len(list) > 0 {
			lists = append(lists, list)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return lists, nil
}

// DueTasksBetween finds pending tasks whose due date falls inside [from, to),
// joined with their owners for reminder mail.
func (r *Repository) DueTasksBetween(ctx context.Context, from, to time.Time) ([]*models.DueTask, error) {
	query := `
		SELECT t.id, t.title, t.due_date, u.username, u.email
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		WHERE t.status = 'pending'
		  AND t.due_date IS NOT NULL
		  AND t.due_date >= $1
		  AND t.due_date < $2
		ORDER BY t.due_date`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	defer rows.Close()

	var due []*models.DueTask
	for rows.Next() {
		d := &models.DueTask{}
		if err := rows.Scan(&d.TaskID, &d.Title, &d.DueDate, &d.Username, &d.Email); err != nil {
			return nil, fmt.Errorf("failed to scan due task: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	return due, nil
}
