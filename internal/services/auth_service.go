package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/observability"
	pkgauth "github.com/rinniizz/crudapi/pkg/auth"
	pkglogger "github.com/rinniizz/crudapi/pkg/logger"
)

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(userID int64, email string, role models.Role) (string, error)
}

// PasswordHasher hashes and checks credentials
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// ClientInfo identifies the caller for audit records
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// RegisterInput is the registration request after decoding
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
	Client    ClientInfo
}

// AuthOptions tunes AuthService behavior
type AuthOptions struct {
	// AllowRoleOnRegister honors a requested role other than user at
	// registration. When false every new account is a plain user.
	AllowRoleOnRegister bool
	FailureDelay        *auth.FailureDelay
	Metrics             *observability.Prom
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	tokens      TokenIssuer
	hasher      PasswordHasher
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	opts        AuthOptions
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tokens TokenIssuer, hasher PasswordHasher, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, opts AuthOptions) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger,
		auditLogger: auditLogger,
		opts:        opts,
	}
}

// Register validates the input, creates the account and signs a token
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	email := pkgauth.NormalizeEmail(in.Email)
	firstName := pkgauth.SanitizeName(in.FirstName)
	lastName := pkgauth.SanitizeName(in.LastName)

	if !pkgauth.ValidateEmail(email) {
		return nil, models.NewValidationError("Invalid email format")
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if firstName == "" || lastName == "" {
		return nil, models.NewValidationError("First name and last name are required")
	}

	role := models.RoleUser
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, models.NewValidationError("Invalid role")
		}
		if s.opts.AllowRoleOnRegister {
			role = in.Role
		} else if in.Role != models.RoleUser {
			s.logger.WarnContext(ctx, "requested role ignored on registration",
				slog.String("requested_role", string(in.Role)),
				slog.String("assigned_role", string(role)),
			)
		}
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to check email availability", err)
	}
	if exists {
		s.recordAuth(ctx, pkglogger.EventRegister, 0, email, in.Client, "email_taken")
		return nil, models.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, models.UserDraft{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.recordAuth(ctx, pkglogger.EventRegister, 0, email, in.Client, "email_taken")
			return nil, models.ErrEmailTaken
		}
		return nil, logStorageError(ctx, s.logger, "failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to issue token", err, slog.Int64("user_id", user.ID))
	}

	s.recordAuth(ctx, pkglogger.EventRegister, user.ID, email, in.Client, "")
	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &models.AuthResult{User: user.Public(), Token: token}, nil
}

// Login checks credentials. A missing user, an inactive user and a wrong
// password all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*models.AuthResult, error) {
	start := time.Now()
	email = pkgauth.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to look up user for login", err)
	}

	var reason string
	switch {
	case user == nil:
		reason = "unknown_email"
	case !user.IsActive:
		reason = "inactive_account"
	case !s.hasher.Verify(password, user.PasswordHash):
		reason = "invalid_password"
	}

	if reason != "" {
		var userID int64
		if user != nil {
			userID = user.ID
		}
		s.recordAuth(ctx, pkglogger.EventLogin, userID, email, client, reason)
		s.opts.FailureDelay.WaitFrom(start)
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to issue token", err, slog.Int64("user_id", user.ID))
	}

	s.recordAuth(ctx, pkglogger.EventLogin, user.ID, email, client, "")

	return &models.AuthResult{User: user.Public(), Token: token}, nil
}

// Refresh issues a new token with a fresh expiry for a still-active user
func (s *AuthService) Refresh(ctx context.Context, userID int64) (*models.TokenResult, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to load user for refresh", err, slog.Int64("user_id", userID))
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("User not found or inactive")
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to issue token", err, slog.Int64("user_id", userID))
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventTokenRefresh,
		UserID:    user.ID,
		Success:   true,
	})

	return &models.TokenResult{Token: token}, nil
}

// GetProfile returns the caller's own record
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, logStorageError(ctx, s.logger, "failed to load profile", err, slog.Int64("user_id", userID))
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user.Public(), nil
}

// EnsureAdmin creates an admin account when none exists for email. It is
// used once at startup; an existing account is left as it is.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = pkgauth.NormalizeEmail(email)
	if !pkgauth.ValidateEmail(email) {
		return false, fmt.Errorf("admin email %q is not valid", pkglogger.SanitizedEmail(email))
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return false, fmt.Errorf("admin password: %w", err)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	_, err = s.repo.Create(ctx, models.UserDraft{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, models.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin account: %w", err)
	}
	return true, nil
}

func (s *AuthService) recordAuth(ctx context.Context, event string, userID int64, email string, client ClientInfo, failure string) {
	s.opts.Metrics.ObserveAuth(event, failure == "")
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     event,
		UserID:        userID,
		Email:         email,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Success:       failure == "",
		FailureReason: failure,
	})
}
