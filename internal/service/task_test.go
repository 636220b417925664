package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/models"
	"github.com/morabagipravin/task-manager-api/internal/repository"
	"github.com/morabagipravin/task-manager-api/internal/storage"
)

func newTaskService(t *testing.T) (*TaskService, sqlmock.Sqlmock, *storage.FileStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig(t)
	log := testLogger()
	files, err := storage.NewFileStore(cfg, log)
	require.NoError(t, err)

	return NewTaskService(repository.NewRepository(db), files, log), mock, files
}

var taskTestColumns = []string{"id", "user_id", "title", "description", "due_date", "status", "attachments", "created_at", "updated_at"}

func taskRow(rows *sqlmock.Rows, id, userID int64, title, status, attachments string) *sqlmock.Rows {
	return rows.AddRow(id, userID, title, nil, nil, status, attachments, time.Now(), time.Now())
}

func TestCreate_Defaults(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs(int64(1), "Buy milk", nil, nil, models.StatusPending, models.AttachmentList{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(10, time.Now(), time.Now()))

	task, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "Buy milk"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.NotNil(t, task.Attachments)
	assert.Empty(t, task.Attachments)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_TitleTrimmed(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs(int64(1), "Buy milk", nil, nil, models.StatusPending, models.AttachmentList{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(11, time.Now(), time.Now()))

	task, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "  Buy milk  "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: ""}},
		{"whitespace title", CreateTaskInput{Title: "   \t "}},
		{"bad status", CreateTaskInput{Title: "x", Status: "archived"}},
		{"bad due date", CreateTaskInput{Title: "x", DueDate: "not-a-date"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tc.in, nil)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCreate_AcceptsDateOnlyDueDate(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs(int64(1), "x", nil, due, models.StatusPending, models.AttachmentList{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(12, time.Now(), time.Now()))

	task, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "x", DueDate: "2026-09-15"}, nil)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, due, *task.DueDate)
}

func TestGet_NotFoundForForeignTask(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), 99, 5)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestList_PageMode(t *testing.T) {
	svc, mock, _ := newTaskService(t)
	ctx := context.Background()

	// Page 1 of 15 tasks: full page, more to come.
	rows := sqlmock.NewRows(taskTestColumns)
	for i := 15; i > 5; i-- {
		taskRow(rows, int64(i), 1, fmt.Sprintf("task %d", i), "pending", "[]")
	}
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	page, err := svc.List(ctx, 1, models.ListOptions{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 10)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	require.NotNil(t, page.Pagination.TotalCount)
	assert.Equal(t, int64(15), *page.Pagination.TotalCount)

	// Page 2: the remaining 5, no further page.
	rows = sqlmock.NewRows(taskTestColumns)
	for i := 5; i > 0; i-- {
		taskRow(rows, int64(i), 1, fmt.Sprintf("task %d", i), "pending", "[]")
	}
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs(int64(1), 10, 10).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	page, err = svc.List(ctx, 1, models.ListOptions{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)
	assert.False(t, page.Pagination.HasMore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_PageModeClampsLimit(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("LIMIT").
		WithArgs(int64(1), 100, 0).
		WillReturnRows(sqlmock.NewRows(taskTestColumns))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := svc.List(context.Background(), 1, models.ListOptions{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Pagination.Limit)
	assert.Empty(t, page.Tasks)
	assert.False(t, page.Pagination.HasMore)
}

func TestList_CursorMode(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	// Six rows come back for limit 5: a further page exists.
	rows := sqlmock.NewRows(taskTestColumns)
	for i := 20; i > 14; i-- {
		taskRow(rows, int64(i), 1, fmt.Sprintf("task %d", i), "pending", "[]")
	}
	cursor := int64(21)
	mock.ExpectQuery(regexp.QuoteMeta(`AND id < $2 ORDER BY id DESC LIMIT $3`)).
		WithArgs(int64(1), cursor, 6).
		WillReturnRows(rows)

	page, err := svc.List(context.Background(), 1, models.ListOptions{Cursor: &cursor, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)
	assert.True(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.NextCursor)
	// nextCursor is the id of the last returned row.
	assert.Equal(t, int64(16), *page.Pagination.NextCursor)
	// Page-mode fields stay unset in cursor mode.
	assert.Zero(t, page.Pagination.Page)
	assert.Nil(t, page.Pagination.TotalCount)
}

func TestList_CursorModeLastBatch(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	rows := sqlmock.NewRows(taskTestColumns)
	for i := 3; i > 0; i-- {
		taskRow(rows, int64(i), 1, fmt.Sprintf("task %d", i), "pending", "[]")
	}
	cursor := int64(4)
	mock.ExpectQuery("ORDER BY id DESC").
		WithArgs(int64(1), cursor, 6).
		WillReturnRows(rows)

	page, err := svc.List(context.Background(), 1, models.ListOptions{Cursor: &cursor, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 3)
	assert.False(t, page.Pagination.HasMore)
	assert.Nil(t, page.Pagination.NextCursor)
}

func TestList_InvalidStatusFilter(t *testing.T) {
	svc, _, _ := newTaskService(t)

	_, err := svc.List(context.Background(), 1, models.ListOptions{Status: "archived"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdate_ForeignTaskReportsNotFound(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(2)).
		WillReturnError(sql.ErrNoRows)

	title := "hijack"
	_, err := svc.Update(context.Background(), 2, 5, UpdateTaskInput{Title: &title}, nil)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestUpdate_NoFields(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", "[]"))

	_, err := svc.Update(context.Background(), 1, 5, UpdateTaskInput{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdate_ReplacesAttachmentFiles(t *testing.T) {
	svc, mock, files := newTaskService(t)

	oldPath := filepath.Join(t.TempDir(), "old.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("old"), 0o644))

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", `["`+oldPath+`"]`))
	mock.ExpectExec("UPDATE tasks SET attachments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", `["uploads/new.txt"]`))

	task, err := svc.Update(context.Background(), 1, 5, UpdateTaskInput{}, models.AttachmentList{"uploads/new.txt"})
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentList{"uploads/new.txt"}, task.Attachments)
	// The replaced file is gone from disk.
	assert.False(t, files.Exists(oldPath))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesRowAndFiles(t *testing.T) {
	svc, mock, files := newTaskService(t)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", `["`+path+`"]`))
	mock.ExpectExec("DELETE FROM tasks").
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), 1, 5))
	assert.False(t, files.Exists(path))

	// A later lookup of the same id reports not found.
	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnError(sql.ErrNoRows)
	_, err := svc.Get(context.Background(), 1, 5)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestDelete_MissingFileIsNotFatal(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", `["/nonexistent/file.txt"]`))
	mock.ExpectExec("DELETE FROM tasks").
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, svc.Delete(context.Background(), 1, 5))
}

func TestStats(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1), "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &models.TaskStats{Total: 5, Pending: 3, Completed: 2}, stats)
}

func TestResolveAttachment(t *testing.T) {
	svc, mock, _ := newTaskService(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))
	attachments := `["` + path + `"]`

	findExpectation := func() {
		mock.ExpectQuery("FROM tasks WHERE id").
			WithArgs(int64(5), int64(1)).
			WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", attachments))
	}

	// Basename match.
	findExpectation()
	got, err := svc.ResolveAttachment(ctx, 1, 5, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// Empty filename selects the first attachment.
	findExpectation()
	got, err = svc.ResolveAttachment(ctx, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// Unknown filename.
	findExpectation()
	_, err = svc.ResolveAttachment(ctx, 1, 5, "other.pdf")
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
}

func TestResolveAttachment_NoAttachments(t *testing.T) {
	svc, mock, _ := newTaskService(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(sqlmock.NewRows(taskTestColumns), 5, 1, "title", "pending", "[]"))

	_, err := svc.ResolveAttachment(context.Background(), 1, 5, "report.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
