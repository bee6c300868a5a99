package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User name and email bounds.
const (
	UserNameMinLength = 2
	UserNameMaxLength = 50
	EmailMaxLength    = 254
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// UserName is a validated display name.
type UserName struct {
	value string
}

// NewUserName validates s: non-blank, between 2 and 50 characters.
func NewUserName(s string) (UserName, error) {
	if strings.TrimSpace(s) == "" {
		return UserName{}, NewInvalidValueError(ErrInvalidUserName, "user name must not be blank")
	}
	n := utf8.RuneCountInString(s)
	if n < UserNameMinLength || n > UserNameMaxLength {
		return UserName{}, NewInvalidValueError(ErrInvalidUserName,
			"user name must be between %d and %d characters: %s",
			UserNameMinLength, UserNameMaxLength, s)
	}
	return UserName{value: s}, nil
}

// String returns the name.
func (n UserName) String() string {
	return n.value
}

// Email is a syntactically valid email address.
type Email struct {
	value string
}

// NewEmail validates s against the address pattern and the 254-character limit.
func NewEmail(s string) (Email, error) {
	if strings.TrimSpace(s) == "" {
		return Email{}, NewInvalidValueError(ErrInvalidEmail, "email must not be blank")
	}
	if utf8.RuneCountInString(s) > EmailMaxLength {
		return Email{}, NewInvalidValueError(ErrInvalidEmail,
			"email must be at most %d characters", EmailMaxLength)
	}
	if !emailPattern.MatchString(s) {
		return Email{}, NewInvalidValueError(ErrInvalidEmail, "invalid email format: %s", s)
	}
	return Email{value: s}, nil
}

// String returns the address.
func (e Email) String() string {
	return e.value
}

// User is an account holder. Users are values: every operation returns a new
// User and leaves the receiver untouched.
type User struct {
	ID        ID
	Name      UserName
	Email     Email
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a user with a fresh identifier.
func NewUser(name UserName, email Email) User {
	ts := currentTime()
	return User{
		ID:        NewID(),
		Name:      name,
		Email:     email,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// RestoreUser rebuilds a persisted user, validating every field.
func RestoreUser(id, name, email string, createdAt, updatedAt time.Time) (User, error) {
	uid, err := ParseID(id)
	if err != nil {
		return User{}, err
	}
	un, err := NewUserName(name)
	if err != nil {
		return User{}, err
	}
	em, err := NewEmail(email)
	if err != nil {
		return User{}, err
	}
	if updatedAt.Before(createdAt) {
		return User{}, NewInvalidValueError(ErrInvalidState,
			"user %s was updated before it was created", id)
	}
	return User{
		ID:        uid,
		Name:      un,
		Email:     em,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

// UpdateProfile replaces name and email. It fails with ErrNoChanges when
// both already hold the given values.
func (u User) UpdateProfile(name UserName, email Email) (User, error) {
	if u.Name == name && u.Email == email {
		return User{}, NewBusinessRuleError(ErrNoChanges, "nothing to update")
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = nextTimestamp(u.UpdatedAt)
	return u, nil
}

// UpdateName replaces the name unconditionally.
func (u User) UpdateName(name UserName) User {
	u.Name = name
	u.UpdatedAt = nextTimestamp(u.UpdatedAt)
	return u
}

// UpdateEmail replaces the email unconditionally.
func (u User) UpdateEmail(email Email) User {
	u.Email = email
	u.UpdatedAt = nextTimestamp(u.UpdatedAt)
	return u
}
