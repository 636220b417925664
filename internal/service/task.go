package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/models"
	"github.com/morabagipravin/task-manager-api/internal/repository"
	"github.com/morabagipravin/task-manager-api/internal/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// dueDateFormats are the accepted due-date encodings, tried in order.
var dueDateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TaskService handles task CRUD, pagination, ownership checks, and the
// attachment lifecycle. Every operation takes the caller's resolved owner id
// explicitly.
type TaskService struct {
	repo  *repository.Repository
	files *storage.FileStore
	log   *logrus.Logger
}

// NewTaskService initializes a new task service
func NewTaskService(repo *repository.Repository, files *storage.FileStore, log *logrus.Logger) *TaskService {
	return &TaskService{repo: repo, files: files, log: log}
}

// CreateTaskInput carries the fields of a new task. Empty strings mean
// "not supplied".
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// UpdateTaskInput carries a partial update. Nil means "leave unchanged"; an
// empty DueDate string clears the due date.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Status      *string
}

func parseDueDate(value string) (*time.Time, error) {
	for _, layout := range dueDateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.Validation("invalid due date format")
}

func parseStatus(value string) (models.TaskStatus, error) {
	status := models.TaskStatus(value)
	if !status.Valid() {
		return "", apperrors.Validation(`status must be either "pending" or "completed"`)
	}
	return status, nil
}

// Create validates and persists a new task. Attachment paths have already
// been stored by the upload layer; only their paths are recorded.
func (s *TaskService) Create(ctx context.Context, ownerID int64, in CreateTaskInput, attachments models.AttachmentList) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("task title is required")
	}

	status := models.StatusPending
	if in.Status != "" {
		var err error
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
	}

	var dueDate *time.Time
	if in.DueDate != "" {
		var err error
		if dueDate, err = parseDueDate(in.DueDate); err != nil {
			return nil, err
		}
	}

	if attachments == nil {
		attachments = models.AttachmentList{}
	}
	task := &models.Task{
		UserID:      ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     dueDate,
		Status:      status,
		Attachments: attachments,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.log.Infof("Task %d created for user %d", task.ID, ownerID)
	return task, nil
}

// Get retrieves an owned task. Another user's task is reported exactly like a
// missing one.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID int64) (*models.Task, error) {
	return s.repo.FindTaskByID(ctx, taskID, ownerID)
}

// List returns one batch of the owner's tasks. Cursor mode walks ids
// descending from the cursor; page mode computes offsets, sorted by an
// allow-listed column, with a total count.
func (s *TaskService) List(ctx context.Context, ownerID int64, opts models.ListOptions) (*models.TaskPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if opts.Status != "" {
		if _, err := parseStatus(opts.Status); err != nil {
			return nil, err
		}
	}

	if opts.Cursor != nil {
		// Fetch one extra row to detect a further page without a count query.
		tasks, err := s.repo.TasksByCursor(ctx, ownerID, opts.Cursor, limit+1, opts.Status)
		if err != nil {
			return nil, err
		}
		hasMore := len(tasks) > limit
		if hasMore {
			tasks = tasks[:limit]
		}
		var nextCursor *int64
		if hasMore {
			nextCursor = &tasks[len(tasks)-1].ID
		}
		if tasks == nil {
			tasks = []*models.Task{}
		}
		return &models.TaskPage{
			Tasks:      tasks,
			Pagination: models.Pagination{HasMore: hasMore, NextCursor: nextCursor},
		}, nil
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	tasks, err := s.repo.TasksByPage(ctx, ownerID, opts.Status, opts.SortBy, opts.SortOrder, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountTasks(ctx, ownerID, opts.Status)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return &models.TaskPage{
		Tasks: tasks,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			TotalCount: &total,
			HasMore:    page < totalPages,
		},
	}, nil
}

// Update applies a partial update to an owned task. When new attachments are
// supplied the previous files are removed best-effort first.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, in UpdateTaskInput, attachments models.AttachmentList) (*models.Task, error) {
	existing, err := s.repo.FindTaskByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	upd := repository.TaskUpdate{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.Validation("task title cannot be empty")
		}
		upd.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		upd.Description = &description
	}
	if in.DueDate != nil {
		if *in.DueDate == "" {
			upd.ClearDueDate = true
		} else {
			if upd.DueDate, err = parseDueDate(*in.DueDate); err != nil {
				return nil, err
			}
		}
	}
	if in.Status != nil {
		status, err := parseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		upd.Status = &status
	}
	if len(attachments) > 0 {
		s.files.Remove(existing.Attachments)
		upd.Attachments = &attachments
	}

	if upd.Empty() {
		return nil, apperrors.Validation("no fields to update")
	}

	updated, err := s.repo.UpdateTask(ctx, taskID, ownerID, upd)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.ErrTaskNotFound
	}

	s.log.Infof("Task %d updated for user %d", taskID, ownerID)
	return s.repo.FindTaskByID(ctx, taskID, ownerID)
}

// Delete removes an owned task row after releasing its attachment files
// best-effort.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) error {
	task, err := s.repo.FindTaskByID(ctx, taskID, ownerID)
	if err != nil {
		return err
	}

	s.files.Remove(task.Attachments)

	deleted, err := s.repo.DeleteTask(ctx, taskID, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrTaskNotFound
	}

	s.log.Infof("Task %d deleted for user %d", taskID, ownerID)
	return nil
}

// Stats returns the owner's task counts.
func (s *TaskService) Stats(ctx context.Context, ownerID int64) (*models.TaskStats, error) {
	total, err := s.repo.CountTasks(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.CountTasks(ctx, ownerID, string(models.StatusPending))
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.CountTasks(ctx, ownerID, string(models.StatusCompleted))
	if err != nil {
		return nil, err
	}
	return &models.TaskStats{Total: total, Pending: pending, Completed: completed}, nil
}

// ResolveAttachment returns the stored path of an owned task's attachment.
// An empty filename selects the first attachment; otherwise the name must
// match a stored path by basename or suffix.
func (s *TaskService) ResolveAttachment(ctx context.Context, ownerID, taskID int64, filename string) (string, error) {
	task, err := s.repo.FindTaskByID(ctx, taskID, ownerID)
	if err != nil {
		return "", err
	}
	if len(task.Attachments) == 0 {
		return "", apperrors.NotFound("no file attached to this task")
	}

	var path string
	if filename == "" {
		path = task.Attachments[0]
	} else {
		for _, p := range task.Attachments {
			if filepath.Base(p) == filename || strings.HasSuffix(p, filename) {
				path = p
				break
			}
		}
	}
	if path == "" || !s.files.Exists(path) {
		return "", apperrors.ErrFileNotFound
	}
	return path, nil
}

// ExportAll returns every task of the owner ordered by id, for export.
func (s *TaskService) ExportAll(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	return s.repo.AllTasks(ctx, ownerID)
}
