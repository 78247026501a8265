package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Account{}, &models.Category{}, &models.Task{}))
	return New(db)
}

func seedAccount(t *testing.T, r *GormRepo, login string) *models.Account {
	t.Helper()

	account := &models.Account{
		Login:        login,
		PasswordHash: "digest",
		User: &models.User{
			CPF:   login,
			Email: login + "@example.com",
			Name:  "Ana",
			Roles: []string{models.RoleUser},
		},
	}
	require.NoError(t, r.CreateAccount(context.Background(), account))
	return account
}

func TestCreateAccount_DuplicateLogin(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "52998224725")

	dup := &models.Account{
		Login:        "52998224725",
		PasswordHash: "digest",
		User: &models.User{
			CPF:   "15350946056",
			Email: "other@example.com",
			Name:  "Bia",
			Roles: []string{models.RoleUser},
		},
	}
	err := r.CreateAccount(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateLogin)
}

func TestAccountByLogin_PreloadsUser(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, r, "52998224725")

	account, err := r.AccountByLogin(ctx, "52998224725")
	require.NoError(t, err)
	require.NotNil(t, account.User)
	assert.Equal(t, "Ana", account.User.Name)
	assert.Nil(t, account.RefreshTokenHash)

	_, err = r.AccountByLogin(ctx, "no-such-login")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshTokenHash_CompareAndSwap(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, r, "52998224725")

	require.NoError(t, r.SetRefreshTokenHash(ctx, account.ID, "digest-1"))

	// swap succeeds while the predicate matches
	require.NoError(t, r.RotateRefreshTokenHash(ctx, account.ID, "digest-1", "digest-2"))

	// the old predicate is now stale
	err := r.RotateRefreshTokenHash(ctx, account.ID, "digest-1", "digest-3")
	assert.ErrorIs(t, err, ErrStaleRefreshHash)

	loaded, err := r.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.RefreshTokenHash)
	assert.Equal(t, "digest-2", *loaded.RefreshTokenHash)
}

func TestClearRefreshTokenHash_Idempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, r, "52998224725")

	require.NoError(t, r.SetRefreshTokenHash(ctx, account.ID, "digest"))
	require.NoError(t, r.ClearRefreshTokenHash(ctx, account.ID))
	require.NoError(t, r.ClearRefreshTokenHash(ctx, account.ID))
	require.NoError(t, r.ClearRefreshTokenHash(ctx, 999999))

	loaded, err := r.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.RefreshTokenHash)
}

func TestDeleteUser_CascadesToAccount(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, r, "52998224725")

	require.NoError(t, r.CreateTask(ctx, &models.Task{Title: "t", UserID: account.ID}))
	require.NoError(t, r.DeleteUser(ctx, account.UserID))

	_, err := r.AccountByID(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.UserByID(ctx, account.UserID)
	assert.ErrorIs(t, err, ErrNotFound)

	tasks, err := r.TasksByUser(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// Users and accounts ride independent autoincrement sequences; after any
// failed insert they drift apart for good. The cascade must key tasks and
// categories on the account id even when the two ids disagree.
func TestDeleteUser_CascadesWithDriftedIDs(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	// push the users sequence ahead of the accounts sequence
	stray := &models.User{CPF: "15350946056", Email: "stray@example.com", Name: "Stray", Roles: []string{models.RoleUser}}
	require.NoError(t, r.DB.WithContext(ctx).Create(stray).Error)

	account := seedAccount(t, r, "52998224725")
	require.NotEqual(t, account.ID, account.UserID)

	require.NoError(t, r.CreateTask(ctx, &models.Task{Title: "t", UserID: account.ID}))
	require.NoError(t, r.CreateCategory(ctx, &models.Category{Name: "c", UserID: account.ID}))

	require.NoError(t, r.DeleteUser(ctx, account.UserID))

	_, err := r.AccountByID(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	tasks, err := r.TasksByUser(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	categories, err := r.CategoriesByUser(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)

	// the stray profile is untouched
	_, err = r.UserByID(ctx, stray.ID)
	assert.NoError(t, err)
}
