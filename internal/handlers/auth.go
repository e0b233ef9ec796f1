package handlers

import (
	"context"
	"net/http"

	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/services"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*models.AuthResult, error)
	Refresh(ctx context.Context, userID int64) (*models.TokenResult, error)
	GetProfile(ctx context.Context, userID int64) (*models.PublicUser, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service  AuthService
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user moderator"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and returns it with a token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Register(context.WithoutCancel(r.Context()), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
		Client:    h.clientInfo(r),
	})
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteCreated(w, "User registered successfully", result)
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(context.WithoutCancel(r.Context()), req.Email, req.Password, h.clientInfo(r))
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Login successful", result)
}

// Profile returns the authenticated user's record
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetProfile(context.WithoutCancel(r.Context()), claims.UserID)
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Profile retrieved successfully", user)
}

// Refresh issues a new token for the authenticated user
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.Refresh(context.WithoutCancel(r.Context()), claims.UserID)
	if err != nil {
		pkghttp.WriteAppError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, "Token refreshed successfully", result)
}

func (h *AuthHandler) clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.UserAgent(),
	}
}

// decodeAndValidate writes the 400 response itself and reports false on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := pkghttp.DecodeJSON(w, r, dst); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "Validation failed", err.Error())
		return false
	}
	return true
}
