package sqlite

import (
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// Timestamps are stored as Unix microseconds so rows sort numerically and
// round-trip exactly.

type userRow struct {
	ID        string `gorm:"primaryKey;size:26"`
	Name      string `gorm:"size:50;not null"`
	Email     string `gorm:"size:254;not null;uniqueIndex:idx_users_email"`
	CreatedAt int64  `gorm:"not null;index:idx_users_created;autoCreateTime:false"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false"`
}

func (userRow) TableName() string { return "users" }

type taskRow struct {
	ID          string `gorm:"primaryKey;size:26"`
	UserID      string `gorm:"size:26;not null;index:idx_tasks_user"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"not null;default:''"`
	Status      string `gorm:"size:20;not null"`
	CreatedAt   int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   int64  `gorm:"not null;autoUpdateTime:false"`
}

func (taskRow) TableName() string { return "tasks" }

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:        u.ID.String(),
		Name:      u.Name.String(),
		Email:     u.Email.String(),
		CreatedAt: u.CreatedAt.UnixMicro(),
		UpdatedAt: u.UpdatedAt.UnixMicro(),
	}
}

func (r userRow) toDomain() (domain.User, error) {
	return domain.RestoreUser(r.ID, r.Name, r.Email, fromMicros(r.CreatedAt), fromMicros(r.UpdatedAt))
}

func toTaskRow(t domain.Task) taskRow {
	return taskRow{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Name:        t.Name.String(),
		Description: t.Description,
		Status:      t.Status.String(),
		CreatedAt:   t.CreatedAt.UnixMicro(),
		UpdatedAt:   t.UpdatedAt.UnixMicro(),
	}
}

func (r taskRow) toDomain() (domain.Task, error) {
	return domain.RestoreTask(r.ID, r.UserID, r.Name, r.Description, r.Status,
		fromMicros(r.CreatedAt), fromMicros(r.UpdatedAt))
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
