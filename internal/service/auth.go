package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/taskhub/internal/hash"
	"github.com/taskhub/taskhub/internal/logging"
	"github.com/taskhub/taskhub/internal/metrics"
	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/mykafka"
	"github.com/taskhub/taskhub/internal/repo"
	"github.com/taskhub/taskhub/internal/tokens"
)

var (
	// ErrInvalidCredentials covers unknown login, wrong password and
	// orphaned credential records. The causes are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrInvalidRefreshToken covers expired, malformed, forged and
	// superseded refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrDuplicateLogin = errors.New("login already taken")
	ErrValidation     = errors.New("validation failed")
)

const eventsTopic = "auth_events"

type AuthService struct {
	Repo     *repo.GormRepo
	Issuer   *tokens.Issuer
	Producer *mykafka.Producer
	Metrics  *metrics.Collector

	// BcryptCost is the work factor for new password digests; zero means
	// hash.DefaultCost.
	BcryptCost int
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RegisterInput struct {
	Login    string
	Password string
	CPF      string
	Email    string
	Name     string
}

// dummyDigest is compared against when the login does not exist, so the
// request still pays the bcrypt cost and response timing does not reveal
// whether an account exists.
var dummyDigest, _ = hash.HashPassword("taskhub-no-such-account", hash.DefaultCost)

func (s *AuthService) SignIn(ctx context.Context, login, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.sign_in")

	if login == "" || password == "" {
		return nil, ErrValidation
	}

	account, err := s.Repo.AccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.CheckPassword(dummyDigest, password)
			s.Metrics.RecordLogin(false)
			return nil, ErrInvalidCredentials
		}
		l.Error("account lookup failed", "error", err)
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	if account.PasswordHash == "" || !hash.CheckPassword(account.PasswordHash, password) {
		s.Metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}
	if account.User == nil {
		// credential record without a profile is not a valid session target
		s.Metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(account)
	if err != nil {
		l.Error("token issue failed", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.Repo.SetRefreshTokenHash(ctx, account.ID, hash.TokenDigest(pair.RefreshToken)); err != nil {
		l.Error("refresh hash store failed", "error", err)
		return nil, fmt.Errorf("store refresh hash: %w", err)
	}

	s.Metrics.RecordLogin(true)
	s.publish(ctx, "user_logged_in", account)
	l.Info("sign in ok", "account_id", account.ID)

	return pair, nil
}

func (s *AuthService) RefreshTokens(ctx context.Context, presented string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Issuer.ParseRefresh(presented)
	if err != nil {
		s.Metrics.RecordRefresh(false)
		return nil, ErrInvalidRefreshToken
	}

	accountID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		s.Metrics.RecordRefresh(false)
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.Repo.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.RecordRefresh(false)
			return nil, ErrInvalidRefreshToken
		}
		l.Error("account lookup failed", "error", err)
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	// A signature-valid token that has been rotated away must still be
	// rejected, so the presented token is checked against the stored digest.
	if account.RefreshTokenHash == nil || !hash.CheckTokenDigest(*account.RefreshTokenHash, presented) {
		s.Metrics.RecordRefresh(false)
		return nil, ErrInvalidRefreshToken
	}
	if account.User == nil {
		s.Metrics.RecordRefresh(false)
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(account)
	if err != nil {
		l.Error("token issue failed", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	err = s.Repo.RotateRefreshTokenHash(ctx, account.ID, *account.RefreshTokenHash, hash.TokenDigest(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, repo.ErrStaleRefreshHash) {
			// a concurrent refresh or a logout won the race
			s.Metrics.RecordRefresh(false)
			return nil, ErrInvalidRefreshToken
		}
		l.Error("rotation failed", "error", err)
		return nil, fmt.Errorf("rotate refresh hash: %w", err)
	}

	s.Metrics.RecordRefresh(true)
	l.Info("tokens rotated", "account_id", account.ID)

	return pair, nil
}

// Logout clears the stored refresh hash. Unknown accounts are a no-op so the
// operation is safe to retry.
func (s *AuthService) Logout(ctx context.Context, accountID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Repo.ClearRefreshTokenHash(ctx, accountID); err != nil {
		l.Error("clear refresh hash failed", "error", err)
		return fmt.Errorf("clear refresh hash: %w", err)
	}

	s.Metrics.RecordLogout()
	s.publish(ctx, "user_logged_out", &models.Account{ID: accountID})
	l.Info("logout ok", "account_id", accountID)
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.Login == "" || in.Password == "" || in.Email == "" || in.Name == "" {
		return nil, ErrValidation
	}

	pwHash, err := hash.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		l.Error("password hash failed", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		Login:        in.Login,
		PasswordHash: pwHash,
		User: &models.User{
			CPF:   in.CPF,
			Email: in.Email,
			Name:  in.Name,
			Roles: []string{models.RoleUser},
		},
	}

	if err := s.Repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repo.ErrDuplicateLogin) {
			return nil, ErrDuplicateLogin
		}
		l.Error("account create failed", "error", err)
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.Metrics.RecordRegistration()
	s.publish(ctx, "user_registered", account)
	l.Info("account registered", "account_id", account.ID)

	return account, nil
}

func (s *AuthService) issuePair(account *models.Account) (*TokenPair, error) {
	accessToken, accessExp, err := s.Issuer.IssueAccess(account)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.Issuer.IssueRefresh(account)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// publish sends an auth event; delivery failure is logged, never surfaced.
func (s *AuthService) publish(ctx context.Context, kind string, account *models.Account) {
	event := map[string]interface{}{
		"type":       kind,
		"account_id": account.ID,
	}
	if account.User != nil {
		event["name"] = account.User.Name
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Producer.PublishEvent(pubCtx, eventsTopic, fmt.Sprint(account.ID), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "type", kind, "error", err)
	}
}
