package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/middleware"
	"github.com/morabagipravin/task-manager-api/internal/service"
	"github.com/morabagipravin/task-manager-api/internal/storage"
)

// Handler wires HTTP requests to the services and renders the
// {success, message, data} envelope.
type Handler struct {
	auth  *service.AuthService
	tasks *service.TaskService
	files *storage.FileStore
	log   *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(auth *service.AuthService, tasks *service.TaskService, files *storage.FileStore, log *logrus.Logger) *Handler {
	return &Handler{auth: auth, tasks: tasks, files: files, log: log}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: true, Message: message, Data: data}); err != nil {
		h.log.Errorf("Failed to write response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Errorf("Internal error: %v", err)
		message = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: false, Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ownerID extracts the caller identity the auth middleware attached.
func ownerID(r *http.Request) (int64, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, apperrors.Auth("access denied")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, "Task Manager API is running", nil)
}
