package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/pkg/auth"
	pkglogger "github.com/rinniizz/crudapi/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, draft models.UserDraft) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, p models.Pagination, filter models.UserFilter) ([]*models.User, int, error)
}

// UpdateInput carries the fields a caller asked to change. Nil means absent.
type UpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *models.Role
	IsActive  *bool
}

// UserList is one page of users plus the total match count
type UserList struct {
	Users []*models.PublicUser
	Total int
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storageError(ctx, "failed to get user", err, slog.Int64("user_id", id))
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user.Public(), nil
}

// ListUsers retrieves one page of users matching filter
func (s *UserService) ListUsers(ctx context.Context, p models.Pagination, filter models.UserFilter) (*UserList, error) {
	users, total, err := s.repo.List(ctx, p, filter)
	if err != nil {
		return nil, s.storageError(ctx, "failed to list users", err,
			slog.Int("page", p.Page), slog.Int("limit", p.Limit))
	}
	return &UserList{Users: models.PublicUsers(users), Total: total}, nil
}

// UpdateUser applies an admin-initiated change, including role and status
func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateInput) (*models.PublicUser, error) {
	return s.update(ctx, id, in)
}

// UpdateSelf applies a change to the caller's own record. Role and status
// cannot be changed this way and are dropped.
func (s *UserService) UpdateSelf(ctx context.Context, id int64, in UpdateInput) (*models.PublicUser, error) {
	in.Role = nil
	in.IsActive = nil
	return s.update(ctx, id, in)
}

func (s *UserService) update(ctx context.Context, id int64, in UpdateInput) (*models.PublicUser, error) {
	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		existing, err := s.repo.FindByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, s.storageError(ctx, "failed to check email", err, slog.Int64("user_id", id))
		}
		if existing != nil && existing.ID != id {
			return nil, models.ErrEmailTaken
		}
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		return nil, s.storageError(ctx, "failed to update user", err, slog.Int64("user_id", id))
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventUserUpdate,
		UserID:    id,
		Success:   true,
	})
	return user.Public(), nil
}

// DeleteUser hard-deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.storageError(ctx, "failed to delete user", err, slog.Int64("user_id", id))
	}
	if !deleted {
		return models.ErrUserNotFound
	}

	s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventUserDelete,
		UserID:    id,
		Success:   true,
	})
	return nil
}

// buildPatch validates and normalizes the requested changes
func buildPatch(in UpdateInput) (models.UserPatch, error) {
	var patch models.UserPatch

	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if !auth.ValidateEmail(email) {
			return patch, models.NewValidationError("Invalid email format")
		}
		patch.Email = &email
	}
	if in.FirstName != nil {
		name := auth.SanitizeName(*in.FirstName)
		if name == "" {
			return patch, models.NewValidationError("First name cannot be empty")
		}
		patch.FirstName = &name
	}
	if in.LastName != nil {
		name := auth.SanitizeName(*in.LastName)
		if name == "" {
			return patch, models.NewValidationError("Last name cannot be empty")
		}
		patch.LastName = &name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return patch, models.NewValidationError("Invalid role")
		}
		role := *in.Role
		patch.Role = &role
	}
	if in.IsActive != nil {
		active := *in.IsActive
		patch.IsActive = &active
	}

	return patch, nil
}

// storageError logs an unexpected repository failure and hides it behind a
// generic internal error. Domain errors pass through untouched.
func (s *UserService) storageError(ctx context.Context, msg string, err error, attrs ...any) error {
	return logStorageError(ctx, s.logger, msg, err, attrs...)
}

func logStorageError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Kind != models.KindInternal {
		return appErr
	}
	logger.ErrorContext(ctx, msg, append(attrs, slog.Any("error", err))...)
	if appErr != nil {
		return appErr
	}
	return models.NewInternalError(err)
}
