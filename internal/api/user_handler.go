package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, usersToResponse(users))
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), pathParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateUser handles PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.UpdateUser(r.Context(), pathParam(r, "id"), req.Name, req.Email)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// PatchUser handles PATCH /api/users/{id}
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	var req PatchUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.PatchUser(r.Context(), pathParam(r, "id"), service.UserPatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteUser handles DELETE /api/users/{id}. With ?cascade=true the
// user's tasks are removed in the same transaction.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cascade := false
	if raw := r.URL.Query().Get("cascade"); raw != "" {
		var err error
		cascade, err = strconv.ParseBool(raw)
		if err != nil {
			log.Debug("invalid cascade parameter", slog.String("value", raw))
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ErrorResponse{
				Error: "Invalid cascade: must be true or false",
				Kind:  domain.KindInvalidValue.String(),
			}, err)
			return
		}
	}

	id := pathParam(r, "id")
	var err error
	if cascade {
		err = h.users.DeleteUserWithTasks(r.Context(), id)
	} else {
		err = h.users.DeleteUser(r.Context(), id)
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("user deleted", slog.String("user_id", id), slog.Bool("cascade", cascade))
	w.WriteHeader(http.StatusNoContent)
}
