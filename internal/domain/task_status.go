package domain

import "strings"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses. COMPLETED and CANCELLED are terminal.
const (
	StatusNotStarted TaskStatus = "NOT_STARTED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses lists every status in lifecycle order.
var TaskStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusCompleted, StatusCancelled}

var statusLabels = map[TaskStatus]string{
	StatusNotStarted: "Not started",
	StatusInProgress: "In progress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

// ParseTaskStatus resolves s as a status code or display label, ignoring case.
func ParseTaskStatus(s string) (TaskStatus, error) {
	needle := strings.TrimSpace(s)
	for _, st := range TaskStatuses {
		if strings.EqualFold(needle, string(st)) || strings.EqualFold(needle, statusLabels[st]) {
			return st, nil
		}
	}
	return "", NewInvalidValueError(ErrInvalidStatus, "unknown task status: %s", s)
}

// String returns the status code.
func (s TaskStatus) String() string {
	return string(s)
}

// Label returns the human-readable name of the status.
func (s TaskStatus) Label() string {
	return statusLabels[s]
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitionFailures holds the rejection message for every forbidden
// (from, to) pair. Pairs absent from the table are allowed.
var transitionFailures = map[TaskStatus]map[TaskStatus]string{
	StatusInProgress: {
		StatusNotStarted: "started tasks cannot be reset to not started",
	},
	StatusCompleted: {
		StatusNotStarted: "completed tasks cannot be reset to not started",
		StatusInProgress: "completed tasks cannot be started",
		StatusCompleted:  "already completed tasks cannot be re-completed",
		StatusCancelled:  "completed tasks cannot be cancelled",
	},
	StatusCancelled: {
		StatusNotStarted: "cancelled tasks cannot be reset to not started",
		StatusInProgress: "cancelled tasks cannot be started",
		StatusCompleted:  "cancelled tasks cannot be completed",
		StatusCancelled:  "task is already cancelled",
	},
}

// TransitionTo checks whether a task in status s may move to target.
func (s TaskStatus) TransitionTo(target TaskStatus) error {
	if !target.IsValid() {
		return NewInvalidValueError(ErrInvalidStatus, "unknown task status: %s", target)
	}
	if msg, forbidden := transitionFailures[s][target]; forbidden {
		return NewBusinessRuleError(ErrIllegalTransition, "%s", msg)
	}
	return nil
}
