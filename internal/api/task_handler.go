package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), req.UserID, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetTask(r.Context(), pathParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasksByUser handles GET /api/tasks/user/{userId}, optionally
// filtered by ?status=.
func (h *TaskHandler) ListTasksByUser(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")

	var (
		tasks []domain.Task
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		tasks, err = h.tasks.ListTasksByUserAndStatus(r.Context(), userID, status)
	} else {
		tasks, err = h.tasks.ListTasksByUser(r.Context(), userID)
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// DeleteTasksByUser handles DELETE /api/tasks/user/{userId}
func (h *TaskHandler) DeleteTasksByUser(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTasksByUser(r.Context(), pathParam(r, "userId")); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTask handles PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), pathParam(r, "id"), req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// PatchTask handles PATCH /api/tasks/{id}
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	var req PatchTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.PatchTask(r.Context(), pathParam(r, "id"), service.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// StartTask handles POST /api/tasks/{id}/start
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.StartTask)
}

// CompleteTask handles POST /api/tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.CompleteTask)
}

// CancelTask handles POST /api/tasks/{id}/cancel
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tasks.CancelTask)
}

// ChangeTaskStatus handles PUT /api/tasks/{id}/status
func (h *TaskHandler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, id string) (domain.Task, error) {
		return h.tasks.ChangeTaskStatus(ctx, id, req.Status)
	})
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTask(r.Context(), pathParam(r, "id")); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string) (domain.Task, error),
) {
	task, err := apply(r.Context(), pathParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}
