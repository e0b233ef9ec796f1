package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rinniizz/crudapi/internal/database"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const userColumns = `id, email, password, first_name, last_name, role, is_active, created_at, updated_at`

type UserRepository struct {
	db   *database.DB
	prom *observability.Prom
}

func NewUserRepository(db *database.DB, prom *observability.Prom) *UserRepository {
	return &UserRepository{db: db, prom: prom}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// run wraps one logical operation in a span, the configured acquire
// timeout, and the DB metrics
func (r *UserRepository) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := observability.Tracer().Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
		),
	)
	defer span.End()

	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	err := r.prom.ObserveDB(op, func() error { return fn(ctx) })
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "database operation failed")
		}
		return database.MapPostgresError(err)
	}
	return nil
}

// Create inserts a user. The email pre-check and the insert share one
// transaction; a unique violation from a concurrent insert maps to the same
// conflict error as the pre-check.
func (r *UserRepository) Create(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	role := draft.Role
	if role == "" {
		role = models.RoleUser
	}

	var created *models.User
	err := r.run(ctx, "users.create", func(ctx context.Context) error {
		return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, draft.Email).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return models.ErrEmailTaken
			}

			user, err := scanUserRow(tx.QueryRow(ctx, `
				INSERT INTO users (email, password, first_name, last_name, role, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
				RETURNING `+userColumns,
				draft.Email, draft.PasswordHash, draft.FirstName, draft.LastName, role,
			))
			if err != nil {
				if database.IsUniqueViolation(err) {
					return models.ErrEmailTaken
				}
				return err
			}
			created = user
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// FindByID returns (nil, nil) when no user has the id
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "users.find_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail matches the stored (already lowercased) email exactly.
// Returns (nil, nil) when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "users.find_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// ExistsByEmail reports whether any user holds email
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.run(ctx, "users.exists_by_email", func(ctx context.Context) error {
		return r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	})
	return exists, err
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var user *models.User
	err := r.run(ctx, op, func(ctx context.Context) error {
		u, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, arg))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies the non-nil fields of patch and bumps updated_at. An empty
// patch returns the current row untouched. Returns (nil, nil) when absent.
func (r *UserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Role != nil {
		set("role", *patch.Role)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	var updated *models.User
	err := r.run(ctx, "users.update", func(ctx context.Context) error {
		u, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, args...))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil
		case database.IsUniqueViolation(err):
			return models.ErrEmailTaken
		}
		updated = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reports whether a row was removed; an absent id is not an error
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.run(ctx, "users.delete", func(ctx context.Context) error {
		tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

// List returns one page of users matching filter, newest first, together
// with the total number of matches before pagination. The count and the page
// are fetched concurrently.
func (r *UserRepository) List(ctx context.Context, p models.Pagination, filter models.UserFilter) ([]*models.User, int, error) {
	where, args := buildUserFilter(filter)

	var (
		users []*models.User
		total int
	)
	err := r.run(ctx, "users.list", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return r.db.Pool.QueryRow(gctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
		})

		g.Go(func() error {
			pageArgs := make([]any, len(args), len(args)+2)
			copy(pageArgs, args)
			pageArgs = append(pageArgs, p.Limit, p.Offset)

			query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
				userColumns, where, len(args)+1, len(args)+2)

			rows, err := r.db.Pool.Query(gctx, query, pageArgs...)
			if err != nil {
				return fmt.Errorf("failed to query users: %w", err)
			}
			users, err = scanUserRows(rows)
			return err
		})

		return g.Wait()
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// buildUserFilter returns a WHERE clause (with leading space) and its args
func buildUserFilter(filter models.UserFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
