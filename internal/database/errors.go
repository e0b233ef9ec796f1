package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rinniizz/crudapi/internal/models"
)

// Postgres SQLSTATE codes that carry domain meaning
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
)

// MapPostgresError translates driver errors into domain errors so raw
// storage failures never leave the repository layer
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if pgErr.ConstraintName == "users_email_key" {
				return models.ErrEmailTaken
			}
			return models.ErrConflict
		case codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation:
			return models.NewValidationError("Validation failed")
		}
	}

	return models.NewInternalError(err)
}

// IsUniqueViolation reports whether err is a unique constraint failure
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
