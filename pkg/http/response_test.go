package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rinniizz/crudapi/internal/models"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteSuccess(w, "User retrieved successfully", map[string]int{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User retrieved successfully", body["message"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, map[string]any{"id": float64(1)}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteCreated(w, "User registered successfully", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "data")
}

func TestWritePaginated(t *testing.T) {
	w := httptest.NewRecorder()
	p := models.NewPagination("2", "10")

	pkghttp.WritePaginated(w, "Users retrieved successfully", []string{}, p, 25)

	body := decode(t, w)
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, map[string]any{
		"page":       float64(2),
		"limit":      float64(10),
		"total":      float64(25),
		"totalPages": float64(3),
	}, body["pagination"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "Validation failed", "email is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, "email is required", body["error"])
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", models.NewValidationError("Invalid email format"), http.StatusBadRequest, "Invalid email format"},
		{"conflict", models.ErrEmailTaken, http.StatusBadRequest, "User with this email already exists"},
		{"unauthorized", models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", models.NewForbiddenError("Insufficient permissions"), http.StatusForbidden, "Insufficient permissions"},
		{"not found wrapped", fmt.Errorf("svc: %w", models.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"internal hides cause", models.NewInternalError(errors.New("pq: relation does not exist")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			pkghttp.WriteAppError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}
