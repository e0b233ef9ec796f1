//go:build integration

package repositories

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rinniizz/crudapi/internal/database"
	"github.com/rinniizz/crudapi/internal/models"
	"github.com/rinniizz/crudapi/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("crudapi"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		slog.Error("failed to start postgres container", slog.Any("error", err))
		os.Exit(1)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		slog.Error("failed to get connection string", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		slog.Error("failed to create pool", slog.Any("error", err))
		os.Exit(1)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqlDB := stdlib.OpenDBFromPool(pool)
	migrator, err := database.NewMigrator(sqlDB, quiet)
	if err == nil {
		err = migrator.Up(ctx)
	}
	_ = sqlDB.Close()
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	testDB = database.NewFromPool(pool, quiet, 5*time.Second)

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(), `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)
	return NewUserRepository(testDB, observability.NewProm(prometheus.NewRegistry()))
}

func draft(email, first, last string) models.UserDraft {
	return models.UserDraft{
		Email:        email,
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuuJ3o5wYQv1Wq3Cw8l2k6b0T5b5y5y5y",
		FirstName:    first,
		LastName:     last,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, draft("john@example.com", "John", "Doe"))
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "john@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	exists, err := repo.ExistsByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_FindAbsentReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.FindByID(context.Background(), 999)
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, draft("dup@example.com", "A", "B"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, draft("dup@example.com", "C", "D"))
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.ErrEmailTaken, err)
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, draft("race@example.com", "R", "C"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, models.ErrEmailTaken, err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestUserRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, draft("jane@example.com", "Jane", "Smith"))
	require.NoError(t, err)

	t.Run("empty patch leaves row untouched", func(t *testing.T) {
		same, err := repo.Update(ctx, created.ID, models.UserPatch{})
		require.NoError(t, err)
		assert.Equal(t, created.UpdatedAt, same.UpdatedAt)
		assert.Equal(t, "Jane", same.FirstName)
	})

	t.Run("single field patch", func(t *testing.T) {
		time.Sleep(10 * time.Millisecond)
		name := "Janet"
		updated, err := repo.Update(ctx, created.ID, models.UserPatch{FirstName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Janet", updated.FirstName)
		assert.Equal(t, "Smith", updated.LastName)
		assert.Equal(t, created.Email, updated.Email)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("absent id", func(t *testing.T) {
		name := "X"
		updated, err := repo.Update(ctx, 424242, models.UserPatch{FirstName: &name})
		assert.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("email collision", func(t *testing.T) {
		_, err := repo.Create(ctx, draft("other@example.com", "O", "T"))
		require.NoError(t, err)

		email := "other@example.com"
		_, err = repo.Update(ctx, created.ID, models.UserPatch{Email: &email})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("invalid role violates check", func(t *testing.T) {
		role := models.Role("superuser")
		_, err := repo.Update(ctx, created.ID, models.UserPatch{Role: &role})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, draft("gone@example.com", "G", "O"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserRepository_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []models.UserDraft{
		draft("john@example.com", "John", "Doe"),
		draft("jane@example.com", "Jane", "Doe"),
		draft("bob@example.com", "Bob", "Builder"),
		draft("pct@example.com", "100%", "Literal"),
	} {
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
	}
	mod := models.RoleModerator
	bob, err := repo.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	inactive := false
	_, err = repo.Update(ctx, bob.ID, models.UserPatch{Role: &mod, IsActive: &inactive})
	require.NoError(t, err)

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		users, total, err := repo.List(ctx, models.NewPagination("1", "10"), models.UserFilter{Search: "DOE"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, users, 2)
		// newest first
		assert.Equal(t, "jane@example.com", users[0].Email)
	})

	t.Run("wildcards match literally", func(t *testing.T) {
		users, total, err := repo.List(ctx, models.NewPagination("1", "10"), models.UserFilter{Search: "%"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "pct@example.com", users[0].Email)
	})

	t.Run("role and active filters", func(t *testing.T) {
		active := false
		users, total, err := repo.List(ctx, models.NewPagination("1", "10"), models.UserFilter{Role: &mod, IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "bob@example.com", users[0].Email)
	})

	t.Run("total counts before pagination", func(t *testing.T) {
		users, total, err := repo.List(ctx, models.NewPagination("2", "3"), models.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, users, 1)
	})

	t.Run("page past the end", func(t *testing.T) {
		users, total, err := repo.List(ctx, models.NewPagination("9", "10"), models.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, users)
	})
}

func TestSeed_IsIdempotent(t *testing.T) {
	newTestRepo(t)
	ctx := context.Background()

	hasher := fakeHasher{}
	n, err := testDB.Seed(ctx, hasher, database.DefaultSeedUsers)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testDB.Seed(ctx, hasher, database.DefaultSeedUsers)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
