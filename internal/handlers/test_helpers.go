package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/services"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID int64, email string, role models.Role) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// DecodeEnvelope checks the status and content type and decodes the envelope
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) pkghttp.Envelope {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var env pkghttp.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to decode response JSON")
	return env
}

// DecodeData re-decodes the envelope's data member into target
func DecodeData(t *testing.T, env pkghttp.Envelope, target interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, target))
}

// AssertErrorResponse checks that response is a failure envelope with the given message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) pkghttp.Envelope {
	t.Helper()
	env := DecodeEnvelope(t, w, expectedStatus)
	assert.False(t, env.Success)
	assert.Equal(t, expectedMessage, env.Message)
	return env
}

// MockAuthService implements AuthService for testing
type MockAuthService struct {
	RegisterFunc   func(ctx context.Context, in services.RegisterInput) (*models.AuthResult, error)
	LoginFunc      func(ctx context.Context, email, password string, client services.ClientInfo) (*models.AuthResult, error)
	RefreshFunc    func(ctx context.Context, userID int64) (*models.TokenResult, error)
	GetProfileFunc func(ctx context.Context, userID int64) (*models.PublicUser, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.AuthResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrEmailTaken
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client services.ClientInfo) (*models.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, client)
}

func (m *MockAuthService) Refresh(ctx context.Context, userID int64) (*models.TokenResult, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, userID)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID int64) (*models.PublicUser, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, userID)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserFunc    func(ctx context.Context, id int64) (*models.PublicUser, error)
	ListUsersFunc  func(ctx context.Context, p models.Pagination, filter models.UserFilter) (*services.UserList, error)
	UpdateUserFunc func(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error)
	UpdateSelfFunc func(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error)
	DeleteUserFunc func(ctx context.Context, id int64) error
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, p models.Pagination, filter models.UserFilter) (*services.UserList, error) {
	if m.ListUsersFunc == nil {
		return &services.UserList{Users: []*models.PublicUser{}}, nil
	}
	return m.ListUsersFunc(ctx, p, filter)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, id, in)
}

func (m *MockUserService) UpdateSelf(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error) {
	if m.UpdateSelfFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateSelfFunc(ctx, id, in)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	if m.DeleteUserFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteUserFunc(ctx, id)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}

// NewTestPublicUser returns a populated public user
func NewTestPublicUser(id int64, email string, role models.Role) *models.PublicUser {
	return &models.PublicUser{
		ID:        id,
		Email:     email,
		FirstName: "John",
		LastName:  "Doe",
		Role:      role,
		IsActive:  true,
	}
}
