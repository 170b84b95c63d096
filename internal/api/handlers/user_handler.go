package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	UserID   *int64 `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := h.service.CreateUser(r.Context(), services.CreateUserInput{
		UserID:   payload.UserID,
		FullName: payload.FullName,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"userId": userID})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User ID must be an integer")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetAll handles listing every user.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
