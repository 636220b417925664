package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/export"
	"github.com/morabagipravin/task-manager-api/internal/models"
	"github.com/morabagipravin/task-manager-api/internal/service"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      *string `json:"status"`
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid task ID")
	}
	return id, nil
}

// formValue returns a pointer to the form field when the request supplied it.
func formValue(form map[string][]string, key string) *string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return &values[0]
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// CreateTask handles task creation from a JSON body or a multipart form with
// attachments.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	attachments, err := h.files.SaveUploads(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var in service.CreateTaskInput
	if isMultipart(r) {
		form := r.MultipartForm.Value
		in = service.CreateTaskInput{
			Title:       strings.Join(form["title"], ""),
			Description: strings.Join(form["description"], ""),
			DueDate:     strings.Join(form["due_date"], ""),
			Status:      strings.Join(form["status"], ""),
		}
	} else {
		var req createTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
		in = service.CreateTaskInput(req)
	}

	task, err := h.tasks.Create(r.Context(), userID, in, attachments)
	if err != nil {
		h.files.Remove(attachments)
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, "Task created successfully", map[string]any{"task": task})
}

func parseListOptions(r *http.Request) (models.ListOptions, error) {
	query := r.URL.Query()
	opts := models.ListOptions{
		Status:    query.Get("status"),
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
	}

	if raw := query.Get("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, apperrors.Validation("invalid cursor")
		}
		opts.Cursor = &cursor
	}
	if raw := query.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			opts.Page = page
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			opts.Limit = limit
		}
	}
	return opts, nil
}

// ListTasks returns one batch of the caller's tasks in cursor or page mode.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	opts, err := parseListOptions(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	page, err := h.tasks.List(r.Context(), userID, opts)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Tasks retrieved successfully", page)
}

// GetTask returns a single owned task.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Task retrieved successfully", map[string]any{"task": task})
}

// UpdateTask applies a partial update, optionally replacing attachments.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	attachments, err := h.files.SaveUploads(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var in service.UpdateTaskInput
	if isMultipart(r) {
		form := r.MultipartForm.Value
		in = service.UpdateTaskInput{
			Title:       formValue(form, "title"),
			Description: formValue(form, "description"),
			DueDate:     formValue(form, "due_date"),
			Status:      formValue(form, "status"),
		}
	} else {
		var req updateTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
		in = service.UpdateTaskInput(req)
	}

	task, err := h.tasks.Update(r.Context(), userID, id, in, attachments)
	if err != nil {
		h.files.Remove(attachments)
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Task updated successfully", map[string]any{"task": task})
}

// DeleteTask removes an owned task and its attachment files.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Task deleted successfully", nil)
}

// GetTaskStats returns the caller's task counts.
func (h *Handler) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	stats, err := h.tasks.Stats(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Task statistics retrieved successfully", map[string]any{"stats": stats})
}

// DownloadAttachment streams one of a task's attachment files. The optional
// "file" query parameter selects among multiple attachments.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	path, err := h.tasks.ResolveAttachment(r.Context(), userID, id, r.URL.Query().Get("file"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// ExportTasks returns every task of the caller as an XML document.
func (h *Handler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	tasks, err := h.tasks.ExportAll(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	body, err := export.TasksXML(tasks)
	if err != nil {
		h.respondError(w, apperrors.Storagef("failed to build export: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.xml"`)
	w.Write(body)
}
