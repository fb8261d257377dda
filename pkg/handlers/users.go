package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/services"
)

// CredentialsRequest is the request body for signup and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UsersHandler handles account HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/users", scope(h.Signup))
	mux.HandleFunc("POST /api/login", scope(h.Login))
	mux.HandleFunc("PUT /api/users/{uid}/password", scope(h.ChangePassword))
}

// Signup handles POST /api/users
func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	defer observe("signup")()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_body", "Invalid request body")
		return
	}

	user, err := h.userService.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "create user")
		return
	}
	writeResult(w, h.logger, http.StatusCreated, user)
}

// Login handles POST /api/login
// Unknown users and wrong passwords both answer 401.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer observe("login")()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_body", "Invalid request body")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "authenticate")
		return
	}
	writeResult(w, h.logger, http.StatusOK, user)
}

// ChangePassword handles PUT /api/users/{uid}/password
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer observe("change_password")()

	userID, ok := pathID(r, "uid")
	if !ok {
		writeBadRequest(w, h.logger, "invalid_user_id", "Invalid user ID")
		return
	}
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid_body", "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, h.logger, err, "change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
