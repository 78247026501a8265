package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/repo"
	"github.com/taskhub/taskhub/internal/tokens"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Account{}, &models.Category{}, &models.Task{}))

	return &AuthService{
		Repo:   repo.New(db),
		Issuer: tokens.NewIssuer([]byte("test-jwt-secret"), []byte("test-refresh-secret")),
	}
}

func registerTestAccount(t *testing.T, svc *AuthService) *models.Account {
	t.Helper()

	account, err := svc.Register(context.Background(), RegisterInput{
		Login:    "52998224725",
		Password: "Str0ng!Pass",
		CPF:      "52998224725",
		Email:    "a@b.com",
		Name:     "Ana",
	})
	require.NoError(t, err)
	return account
}

func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	account := registerTestAccount(t, svc)

	assert.NotEmpty(t, account.ID)
	assert.NotEqual(t, "Str0ng!Pass", account.PasswordHash)
	assert.Nil(t, account.RefreshTokenHash)
	require.NotNil(t, account.User)
	assert.Equal(t, []string{"user"}, account.User.Roles)
}

func TestRegister_ConfiguredBcryptCost(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	svc.BcryptCost = bcrypt.MinCost
	account := registerTestAccount(t, svc)

	cost, err := bcrypt.Cost([]byte(account.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestRegister_DuplicateLogin(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	registerTestAccount(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Login:    "52998224725",
		Password: "0ther!Pass",
		CPF:      "15350946056",
		Email:    "c@d.com",
		Name:     "Bia",
	})
	assert.ErrorIs(t, err, ErrDuplicateLogin)
}

func TestSignIn_IssuesPairWithAccountClaims(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	account := registerTestAccount(t, svc)

	pair, err := svc.SignIn(context.Background(), "52998224725", "Str0ng!Pass")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.Issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Ana", claims.Username)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, []string{"user"}, claims.Roles)

	subject, err := tokens.SubjectID(claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, account.ID, subject)

	refreshClaims, err := svc.Issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	subject, err = tokens.SubjectID(refreshClaims.Subject)
	require.NoError(t, err)
	assert.Equal(t, account.ID, subject)
}

func TestSignIn_WrongPasswordAndUnknownLoginIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	registerTestAccount(t, svc)
	ctx := context.Background()

	pair, errWrongPass := svc.SignIn(ctx, "52998224725", "wrong")
	assert.Nil(t, pair)
	pair, errUnknown := svc.SignIn(ctx, "15350946056", "Str0ng!Pass")
	assert.Nil(t, pair)

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error())
}

func TestSignIn_OrphanedAccountRejected(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	account := registerTestAccount(t, svc)
	ctx := context.Background()

	// strip the profile; the credential record alone must not sign in
	require.NoError(t, svc.Repo.DB.Delete(&models.User{}, account.UserID).Error)

	_, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_StoresRefreshDigest(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	account := registerTestAccount(t, svc)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	require.NoError(t, err)

	loaded, err := svc.Repo.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded.RefreshTokenHash)
}

func TestRefreshTokens_RotationSupersedesOldToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	registerTestAccount(t, svc)
	ctx := context.Background()

	pair, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	require.NoError(t, err)

	rotated, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the original token is signature-valid and unexpired, yet superseded
	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// the rotated token still works
	_, err = svc.RefreshTokens(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshTokens_InvalidInputs(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	registerTestAccount(t, svc)
	ctx := context.Background()

	_, err := svc.RefreshTokens(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// signature-valid token for an account with no active session
	pair, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	require.NoError(t, err)
	claims, err := svc.Issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	accountID, err := tokens.SubjectID(claims.Subject)
	require.NoError(t, err)
	require.NoError(t, svc.Repo.ClearRefreshTokenHash(ctx, accountID))

	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	account := registerTestAccount(t, svc)
	ctx := context.Background()

	pair, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, account.ID))

	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_UnknownAccountIsNoop(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	require.NoError(t, svc.Logout(context.Background(), 999999))
}

func TestRefreshTokens_ConcurrentCallsExactlyOneWins(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	registerTestAccount(t, svc)
	ctx := context.Background()

	pair, err := svc.SignIn(ctx, "52998224725", "Str0ng!Pass")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.RefreshTokens(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestSignIn_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		login    string
		password string
	}{
		{name: "empty login", login: "", password: "Str0ng!Pass"},
		{name: "empty password", login: "52998224725", password: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pair, err := svc.SignIn(ctx, tt.login, tt.password)
			require.Error(t, err)
			assert.Nil(t, pair)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}
