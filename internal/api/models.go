package api

import (
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// CreateUserRequest defines the payload for POST /api/users.
type CreateUserRequest struct {
	Name  string `json:"name"  validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,max=254"`
}

// UpdateUserRequest defines the payload for PUT /api/users/{id}.
type UpdateUserRequest struct {
	Name  string `json:"name"  validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,max=254"`
}

// PatchUserRequest defines the payload for PATCH /api/users/{id}. Absent
// fields are left unchanged.
type PatchUserRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitnil,min=2,max=50"`
	Email *string `json:"email,omitempty" validate:"omitnil,max=254"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTaskRequest defines the payload for POST /api/tasks.
type CreateTaskRequest struct {
	UserID      string `json:"user_id"     validate:"required"`
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateTaskRequest defines the payload for PUT /api/tasks/{id}.
type UpdateTaskRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// PatchTaskRequest defines the payload for PATCH /api/tasks/{id}.
type PatchTaskRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitnil,max=255"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=2000"`
}

// ChangeStatusRequest defines the payload for PUT /api/tasks/{id}/status.
// Status may be a status code or its label.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskListResponse wraps task collections.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name.String(),
		Email:     u.Email.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out
}

func taskToResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Name:        t.Name.String(),
		Description: t.Description,
		Status:      t.Status.String(),
		StatusLabel: t.Status.Label(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponse(tasks []domain.Task) TaskListResponse {
	out := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, taskToResponse(t))
	}
	return out
}
