package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUserName(t *testing.T, s string) domain.UserName {
	t.Helper()
	n, err := domain.NewUserName(s)
	require.NoError(t, err)
	return n
}

func mustEmail(t *testing.T, s string) domain.Email {
	t.Helper()
	e, err := domain.NewEmail(s)
	require.NoError(t, err)
	return e
}

func TestNewUserName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "one character", input: "a", wantErr: true},
		{name: "two characters", input: "ab", wantErr: false},
		{name: "fifty characters", input: strings.Repeat("a", 50), wantErr: false},
		{name: "fifty one characters", input: strings.Repeat("a", 51), wantErr: true},
		{name: "blank", input: "    ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "multibyte counted as characters", input: strings.Repeat("名", 50), wantErr: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n, err := domain.NewUserName(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidValue)
				assert.ErrorIs(t, err, domain.ErrInvalidUserName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.input, n.String())
		})
	}
}

func TestNewEmail(t *testing.T) {
	t.Parallel()

	domainPart := "@example.com"
	at254 := strings.Repeat("a", 254-len(domainPart)) + domainPart
	at255 := strings.Repeat("a", 255-len(domainPart)) + domainPart

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "test@example.com", wantErr: false},
		{name: "dots and plus", input: "user.name+tag@example.co.jp", wantErr: false},
		{name: "no at sign", input: "invalid-email", wantErr: true},
		{name: "empty local part", input: "@example.com", wantErr: true},
		{name: "no domain", input: "test@", wantErr: true},
		{name: "no tld", input: "test@example", wantErr: true},
		{name: "one letter tld", input: "test@example.c", wantErr: true},
		{name: "blank", input: " ", wantErr: true},
		{name: "254 characters", input: at254, wantErr: false},
		{name: "255 characters", input: at255, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e, err := domain.NewEmail(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidValue)
				assert.ErrorIs(t, err, domain.ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.input, e.String())
		})
	}

	t.Run("message names the rejected value", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewEmail("invalid-email")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid-email")
	})
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	u := domain.NewUser(mustUserName(t, "Taro"), mustEmail(t, "taro@example.com"))

	assert.False(t, u.ID.IsZero())
	assert.Equal(t, "Taro", u.Name.String())
	assert.Equal(t, "taro@example.com", u.Email.String())
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
}

func TestUserUpdateProfile(t *testing.T) {
	t.Parallel()

	original := domain.NewUser(mustUserName(t, "Taro"), mustEmail(t, "taro@example.com"))

	t.Run("no-op update is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := original.UpdateProfile(original.Name, original.Email)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
		assert.ErrorIs(t, err, domain.ErrNoChanges)
		assert.Equal(t, "nothing to update", err.Error())
	})

	t.Run("changed name returns a new value", func(t *testing.T) {
		t.Parallel()
		before := original
		updated, err := original.UpdateProfile(mustUserName(t, "Jiro"), original.Email)
		require.NoError(t, err)

		assert.Equal(t, "Jiro", updated.Name.String())
		assert.Equal(t, original.ID, updated.ID)
		assert.Equal(t, original.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
		assert.Equal(t, before, original, "receiver must not change")
	})

	t.Run("changed email only", func(t *testing.T) {
		t.Parallel()
		updated, err := original.UpdateProfile(original.Name, mustEmail(t, "jiro@example.com"))
		require.NoError(t, err)
		assert.Equal(t, "jiro@example.com", updated.Email.String())
	})
}

func TestUserPartialUpdates(t *testing.T) {
	t.Parallel()

	original := domain.NewUser(mustUserName(t, "Taro"), mustEmail(t, "taro@example.com"))

	sameName := original.UpdateName(original.Name)
	assert.Equal(t, original.Name, sameName.Name)
	assert.True(t, sameName.UpdatedAt.After(original.UpdatedAt))

	renamed := original.UpdateName(mustUserName(t, "Hanako"))
	assert.Equal(t, "Hanako", renamed.Name.String())
	assert.Equal(t, original.Email, renamed.Email)

	moved := original.UpdateEmail(mustEmail(t, "hanako@example.com"))
	assert.Equal(t, "hanako@example.com", moved.Email.String())
	assert.Equal(t, original.Name, moved.Name)
	assert.Equal(t, "Taro", original.Name.String())
}

func TestRestoreUser(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("valid row", func(t *testing.T) {
		t.Parallel()
		u, err := domain.RestoreUser("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Taro", "taro@example.com",
			created, created.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", u.ID.String())
		assert.Equal(t, created, u.CreatedAt)
	})

	t.Run("corrupt email", func(t *testing.T) {
		t.Parallel()
		_, err := domain.RestoreUser("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Taro", "nope", created, created)
		assert.True(t, errors.Is(err, domain.ErrInvalidEmail))
	})

	t.Run("updated before created", func(t *testing.T) {
		t.Parallel()
		_, err := domain.RestoreUser("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Taro", "taro@example.com",
			created, created.Add(-time.Second))
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}
