package services

import (
	"context"
	"strings"
	"time"

	"github.com/rinniizz/crudapi/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, draft models.UserDraft) (*models.User, error)
	FindByIDFunc      func(ctx context.Context, id int64) (*models.User, error)
	FindByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailFunc func(ctx context.Context, email string) (bool, error)
	UpdateFunc        func(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id int64) (bool, error)
	ListFunc          func(ctx context.Context, p models.Pagination, filter models.UserFilter) ([]*models.User, int, error)
}

func (m *MockUserRepository) Create(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, draft)
	}
	return nil, models.ErrInternal
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return false, nil
}

func (m *MockUserRepository) List(ctx context.Context, p models.Pagination, filter models.UserFilter) ([]*models.User, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, p, filter)
	}
	return []*models.User{}, 0, nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(userID int64, email string, role models.Role) (string, error)
}

func (m *MockTokenIssuer) Issue(userID int64, email string, role models.Role) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID, email, role)
	}
	return "header.payload.signature", nil
}

// MockPasswordHasher is a reversible hasher so tests stay fast
type MockPasswordHasher struct {
	HashFunc func(password string) (string, error)
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *MockPasswordHasher) Verify(password, hash string) bool {
	return strings.TrimPrefix(hash, "hashed:") == password && strings.HasPrefix(hash, "hashed:")
}

// NewTestUser creates a test user with sensible defaults
func NewTestUser(id int64, email string, role models.Role) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hashed:Password123",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func strPtr(s string) *string { return &s }
