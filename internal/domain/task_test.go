package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTaskName(t *testing.T, s string) domain.TaskName {
	t.Helper()
	n, err := domain.NewTaskName(s)
	require.NoError(t, err)
	return n
}

func newTestTask(t *testing.T) domain.Task {
	t.Helper()
	return domain.NewTask(domain.NewID(), mustTaskName(t, "Write report"), "quarterly numbers")
}

// taskIn returns a task whose status is s, reached through legal transitions.
func taskIn(t *testing.T, s domain.TaskStatus) domain.Task {
	t.Helper()
	task := newTestTask(t)
	if s == domain.StatusNotStarted {
		return task
	}
	task, err := task.ChangeStatus(s)
	require.NoError(t, err)
	return task
}

func TestNewTaskName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "one character", input: "a", wantErr: false},
		{name: "255 characters", input: strings.Repeat("x", 255), wantErr: false},
		{name: "256 characters", input: strings.Repeat("x", 256), wantErr: true},
		{name: "blank", input: "\t ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := domain.NewTaskName(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidValue)
				assert.ErrorIs(t, err, domain.ErrInvalidTaskName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	userID := domain.NewID()
	task := domain.NewTask(userID, mustTaskName(t, "Write report"), "")

	assert.False(t, task.ID.IsZero())
	assert.NotEqual(t, userID, task.ID)
	assert.Equal(t, userID, task.UserID)
	assert.Equal(t, domain.StatusNotStarted, task.Status)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestParseTaskStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  domain.TaskStatus
		ok    bool
	}{
		{input: "NOT_STARTED", want: domain.StatusNotStarted, ok: true},
		{input: "in_progress", want: domain.StatusInProgress, ok: true},
		{input: "Completed", want: domain.StatusCompleted, ok: true},
		{input: "cancelled", want: domain.StatusCancelled, ok: true},
		{input: "In progress", want: domain.StatusInProgress, ok: true},
		{input: "not started", want: domain.StatusNotStarted, ok: true},
		{input: "DONE", ok: false},
		{input: "", ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := domain.ParseTaskStatus(tc.input)
			if !tc.ok {
				assert.ErrorIs(t, err, domain.ErrInvalidValue)
				assert.ErrorIs(t, err, domain.ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTaskStatusLabels(t *testing.T) {
	t.Parallel()

	for _, s := range domain.TaskStatuses {
		assert.NotEmpty(t, s.Label(), "status %s has no label", s)
		assert.True(t, s.IsValid())
	}
	assert.True(t, domain.StatusCompleted.IsTerminal())
	assert.True(t, domain.StatusCancelled.IsTerminal())
	assert.False(t, domain.StatusNotStarted.IsTerminal())
	assert.False(t, domain.StatusInProgress.IsTerminal())
	assert.False(t, domain.TaskStatus("DONE").IsValid())
}

func TestTaskStateMachine(t *testing.T) {
	t.Parallel()

	type pair struct{ from, to domain.TaskStatus }
	allowed := map[pair]bool{
		{domain.StatusNotStarted, domain.StatusNotStarted}: true,
		{domain.StatusNotStarted, domain.StatusInProgress}: true,
		{domain.StatusNotStarted, domain.StatusCompleted}:  true,
		{domain.StatusNotStarted, domain.StatusCancelled}:  true,
		{domain.StatusInProgress, domain.StatusInProgress}: true,
		{domain.StatusInProgress, domain.StatusCompleted}:  true,
		{domain.StatusInProgress, domain.StatusCancelled}:  true,
	}

	for _, from := range domain.TaskStatuses {
		from := from
		for _, to := range domain.TaskStatuses {
			to := to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				t.Parallel()
				task := taskIn(t, from)
				next, err := task.ChangeStatus(to)

				if allowed[pair{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, next.Status)
					assert.True(t, next.UpdatedAt.After(task.UpdatedAt))
					return
				}

				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrBusinessRule)
				assert.ErrorIs(t, err, domain.ErrIllegalTransition)
				assert.Equal(t, from, task.Status, "receiver must not change")
			})
		}
	}
}

func TestTaskTransitionMessages(t *testing.T) {
	t.Parallel()

	completed := taskIn(t, domain.StatusCompleted)
	cancelled := taskIn(t, domain.StatusCancelled)

	tests := []struct {
		name string
		op   func() (domain.Task, error)
		msg  string
	}{
		{"complete completed", completed.Complete, "already completed tasks cannot be re-completed"},
		{"start completed", completed.Start, "completed tasks cannot be started"},
		{"cancel completed", completed.Cancel, "completed tasks cannot be cancelled"},
		{"complete cancelled", cancelled.Complete, "cancelled tasks cannot be completed"},
		{"start cancelled", cancelled.Start, "cancelled tasks cannot be started"},
		{"cancel cancelled", cancelled.Cancel, "task is already cancelled"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.op()
			require.Error(t, err)
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}

func TestTaskStartIsIdempotent(t *testing.T) {
	t.Parallel()

	started, err := newTestTask(t).Start()
	require.NoError(t, err)
	again, err := started.Start()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, again.Status)
}

func TestTaskUpdateTask(t *testing.T) {
	t.Parallel()

	task := newTestTask(t)

	_, err := task.UpdateTask(task.Name, task.Description)
	assert.ErrorIs(t, err, domain.ErrNoChanges)

	updated, err := task.UpdateTask(task.Name, "new description")
	require.NoError(t, err)
	assert.Equal(t, "new description", updated.Description)
	assert.Equal(t, "quarterly numbers", task.Description)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.Equal(t, task.Status, updated.Status)

	renamed := task.UpdateName(mustTaskName(t, "Write summary"))
	assert.Equal(t, "Write summary", renamed.Name.String())
	cleared := task.UpdateDescription("")
	assert.Equal(t, "", cleared.Description)
}

// Not parallel: swaps the package clock.
func TestUpdatedAtStrictlyIncreasesOnFrozenClock(t *testing.T) {
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	restore := domain.FreezeClock(frozen)
	defer restore()

	task := domain.NewTask(domain.NewID(), mustTaskName(t, "Frozen"), "")
	require.Equal(t, frozen, task.CreatedAt)

	started, err := task.Start()
	require.NoError(t, err)
	completed, err := started.Complete()
	require.NoError(t, err)

	assert.True(t, started.UpdatedAt.After(task.UpdatedAt))
	assert.True(t, completed.UpdatedAt.After(started.UpdatedAt))
	assert.Equal(t, frozen, completed.CreatedAt)

	user := domain.NewUser(mustUserName(t, "Frozen"), mustEmail(t, "frozen@example.com"))
	renamed, err := user.UpdateProfile(mustUserName(t, "Thawed"), user.Email)
	require.NoError(t, err)
	assert.True(t, renamed.UpdatedAt.After(user.UpdatedAt))
}

func TestRestoreTask(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := domain.NewID().String()
	userID := domain.NewID().String()

	task, err := domain.RestoreTask(id, userID, "Write", "", "IN_PROGRESS", created, created)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, task.Status)

	_, err = domain.RestoreTask(id, userID, "Write", "", "DONE", created, created)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = domain.RestoreTask(id, "bad", "Write", "", "IN_PROGRESS", created, created)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.KindNotFound, domain.KindOf(domain.UserNotFound(domain.NewID())))
	assert.Equal(t, domain.KindUnknown, domain.KindOf(assert.AnError))
	assert.Equal(t, "not_found", domain.KindNotFound.String())
	assert.Equal(t, "internal", domain.KindUnknown.String())

	email := mustEmail(t, "dup@example.com")
	err := domain.EmailInUse(email)
	assert.Contains(t, err.Error(), "dup@example.com")
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
}
