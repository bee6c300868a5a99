package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Task name bounds.
const (
	TaskNameMinLength = 1
	TaskNameMaxLength = 255
)

// TaskName is a validated task title.
type TaskName struct {
	value string
}

// NewTaskName validates s: non-blank, at most 255 characters.
func NewTaskName(s string) (TaskName, error) {
	if strings.TrimSpace(s) == "" {
		return TaskName{}, NewInvalidValueError(ErrInvalidTaskName, "task name must not be blank")
	}
	n := utf8.RuneCountInString(s)
	if n < TaskNameMinLength || n > TaskNameMaxLength {
		return TaskName{}, NewInvalidValueError(ErrInvalidTaskName,
			"task name must be between %d and %d characters", TaskNameMinLength, TaskNameMaxLength)
	}
	return TaskName{value: s}, nil
}

// String returns the name.
func (n TaskName) String() string {
	return n.value
}

// Task is a unit of work owned by a user. Like User it is a value; status
// changes go through the transition table in TaskStatus.TransitionTo.
type Task struct {
	ID          ID
	UserID      ID
	Name        TaskName
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask creates a NOT_STARTED task for userID.
func NewTask(userID ID, name TaskName, description string) Task {
	ts := currentTime()
	return Task{
		ID:          NewID(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      StatusNotStarted,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// RestoreTask rebuilds a persisted task, validating every field.
func RestoreTask(
	id, userID, name, description, status string,
	createdAt, updatedAt time.Time,
) (Task, error) {
	tid, err := ParseID(id)
	if err != nil {
		return Task{}, err
	}
	uid, err := ParseID(userID)
	if err != nil {
		return Task{}, err
	}
	tn, err := NewTaskName(name)
	if err != nil {
		return Task{}, err
	}
	st := TaskStatus(status)
	if !st.IsValid() {
		return Task{}, NewInvalidValueError(ErrInvalidStatus, "unknown task status: %s", status)
	}
	if updatedAt.Before(createdAt) {
		return Task{}, NewInvalidValueError(ErrInvalidState,
			"task %s was updated before it was created", id)
	}
	return Task{
		ID:          tid,
		UserID:      uid,
		Name:        tn,
		Description: description,
		Status:      st,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

// UpdateTask replaces name and description. It fails with ErrNoChanges when
// both already hold the given values.
func (t Task) UpdateTask(name TaskName, description string) (Task, error) {
	if t.Name == name && t.Description == description {
		return Task{}, NewBusinessRuleError(ErrNoChanges, "nothing to update")
	}
	t.Name = name
	t.Description = description
	t.UpdatedAt = nextTimestamp(t.UpdatedAt)
	return t, nil
}

// UpdateName replaces the name unconditionally.
func (t Task) UpdateName(name TaskName) Task {
	t.Name = name
	t.UpdatedAt = nextTimestamp(t.UpdatedAt)
	return t
}

// UpdateDescription replaces the description unconditionally.
func (t Task) UpdateDescription(description string) Task {
	t.Description = description
	t.UpdatedAt = nextTimestamp(t.UpdatedAt)
	return t
}

// ChangeStatus moves the task to target if the transition is allowed.
func (t Task) ChangeStatus(target TaskStatus) (Task, error) {
	if err := t.Status.TransitionTo(target); err != nil {
		return Task{}, err
	}
	t.Status = target
	t.UpdatedAt = nextTimestamp(t.UpdatedAt)
	return t, nil
}

// Start moves the task to IN_PROGRESS. Starting an in-progress task is allowed.
func (t Task) Start() (Task, error) {
	return t.ChangeStatus(StatusInProgress)
}

// Complete moves the task to COMPLETED.
func (t Task) Complete() (Task, error) {
	return t.ChangeStatus(StatusCompleted)
}

// Cancel moves the task to CANCELLED.
func (t Task) Cancel() (Task, error) {
	return t.ChangeStatus(StatusCancelled)
}
