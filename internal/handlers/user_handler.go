package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/repository"
)

// UserHandler handles admin user provisioning
type UserHandler struct {
	users repository.UserRepo
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users repository.UserRepo) *UserHandler {
	return &UserHandler{users: users}
}

// Create provisions a user with a generated API key. The key is returned in
// this response only; afterwards only its hash exists. An optional password
// is bcrypt-hashed for web sign-in.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := models.NewUser(req.OrgID, req.Email, req.DisplayName, req.Role)
	if err != nil {
		var userErr models.UserError
		if errors.As(err, &userErr) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.users.Add(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}
