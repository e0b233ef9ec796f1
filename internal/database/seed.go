package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rinniizz/crudapi/internal/models"
)

// SeedUser is a fixture account inserted by Seed
type SeedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// DefaultSeedUsers are the sample accounts for local development
var DefaultSeedUsers = []SeedUser{
	{Email: "user@example.com", Password: "User123!", FirstName: "John", LastName: "Doe", Role: models.RoleUser},
	{Email: "moderator@example.com", Password: "Moderator123!", FirstName: "Jane", LastName: "Smith", Role: models.RoleModerator},
}

// PasswordHasher is the subset of the credential codec Seed needs
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Seed inserts users, skipping any whose email already exists.
// It returns the number of rows actually inserted.
func (db *DB) Seed(ctx context.Context, hasher PasswordHasher, users []SeedUser) (int, error) {
	inserted := 0
	for _, u := range users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return inserted, fmt.Errorf("hash seed password for %s: %w", u.Email, err)
		}

		tag, err := db.Pool.Exec(ctx, `
			INSERT INTO users (email, password, first_name, last_name, role)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING`,
			u.Email, hash, u.FirstName, u.LastName, u.Role,
		)
		if err != nil {
			return inserted, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		inserted += int(tag.RowsAffected())
	}

	db.logger.Info("seed complete", slog.Int("inserted", inserted), slog.Int("total", len(users)))
	return inserted, nil
}
