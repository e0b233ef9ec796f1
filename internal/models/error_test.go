package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByKind(t *testing.T) {
	err := NewNotFoundError("User not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	wrapped := fmt.Errorf("lookup: %w", ErrEmailTaken)
	assert.True(t, errors.Is(wrapped, ErrConflict))
}

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrConflict, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Kind.String())
	}
}

func TestAsAppError_WrapsUnknownErrors(t *testing.T) {
	raw := errors.New("connection refused")

	appErr := AsAppError(raw)

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, raw)
}

func TestAsAppError_KeepsDomainErrors(t *testing.T) {
	appErr := AsAppError(fmt.Errorf("ctx: %w", ErrInvalidCredentials))

	assert.Equal(t, ErrInvalidCredentials, appErr)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestUser_PublicOmitsPassword(t *testing.T) {
	u := &User{ID: 7, Email: "a@b.com", PasswordHash: "$2a$secret", FirstName: "A", LastName: "B", Role: RoleUser, IsActive: true}

	pub := u.Public()

	assert.Equal(t, int64(7), pub.ID)
	assert.Equal(t, "a@b.com", pub.Email)
	assert.Equal(t, RoleUser, pub.Role)
	assert.True(t, pub.IsActive)
}

func TestUserPatch_IsEmpty(t *testing.T) {
	assert.True(t, UserPatch{}.IsEmpty())

	name := "Jane"
	assert.False(t, UserPatch{FirstName: &name}.IsEmpty())
}
