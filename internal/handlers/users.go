package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/services"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.PublicUser, error)
	ListUsers(ctx context.Context, p models.Pagination, filter models.UserFilter) (*services.UserList, error)
	UpdateUser(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error)
	UpdateSelf(ctx context.Context, id int64, in services.UpdateInput) (*models.PublicUser, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// UpdateUserRequest represents the request body for updating a user.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin user moderator"`
	IsActive  *bool   `json:"isActive"`
}

func (req UpdateUserRequest) input() services.UpdateInput {
	in := services.UpdateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}
	return in
}

// ListUsers returns one page of users
//
// Query: page, limit, search, role, isActive
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := models.NewPagination(q.Get("page"), q.Get("limit"))

	filter := models.UserFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("role"); raw != "" {
		role := models.Role(raw)
		if !role.Valid() {
			pkghttp.WriteBadRequest(w, "Invalid role")
			return
		}
		filter.Role = &role
	}
	if raw := q.Get("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	list, err := h.service.ListUsers(context.WithoutCancel(r.Context()), p, filter)
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WritePaginated(w, "Users retrieved successfully", list.Users, p, list.Total)
}

// GetUser retrieves a user by ID
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(context.WithoutCancel(r.Context()), id)
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "User retrieved successfully", user)
}

// UpdateUser applies an admin change to any user
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(context.WithoutCancel(r.Context()), id, req.input())
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "User updated successfully", user)
}

// DeleteUser hard-deletes a user
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(context.WithoutCancel(r.Context()), id); err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "User deleted successfully", nil)
}

// GetMe returns the authenticated user's record
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetUser(context.WithoutCancel(r.Context()), claims.UserID)
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Current user retrieved successfully", user)
}

// UpdateMe lets the authenticated user edit their own profile. Role and
// status in the body are ignored.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateSelf(context.WithoutCancel(r.Context()), claims.UserID, req.input())
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Profile updated successfully", user)
}

// userIDParam parses {id}; it writes the 400 itself when the id is unusable
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return 0, false
	}
	return id, true
}
