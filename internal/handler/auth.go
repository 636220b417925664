package handler

import (
	"net/http"

	"github.com/morabagipravin/task-manager-api/internal/models"
	"github.com/morabagipravin/task-manager-api/internal/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type authPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, "User registered successfully", authPayload{User: user, Token: token})
}

// Login handles user authentication with a username or email identifier.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}

	user, token, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Login successful", authPayload{User: user, Token: token})
}

// GetProfile returns the caller's user record.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Profile retrieved successfully", map[string]any{"user": user})
}

// UpdateProfile applies a partial profile update.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}

// DeleteAccount hard-deletes the caller's account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.auth.DeleteAccount(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Account deleted successfully", nil)
}

// RefreshToken mints a new token for the authenticated caller.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	token, err := h.auth.RefreshToken(userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, "Token refreshed successfully", map[string]any{"token": token})
}
