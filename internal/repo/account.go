package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
)

func (r *GormRepo) AccountByLogin(ctx context.Context, login string) (*models.Account, error) {
	var account models.Account
	err := r.DB.WithContext(ctx).Preload("User").Where("login = ?", login).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *GormRepo) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := r.DB.WithContext(ctx).Preload("User").First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount persists the account and its linked user in one transaction.
// Login uniqueness is checked inside the transaction so a duplicate surfaces
// as ErrDuplicateLogin rather than a raw constraint violation.
func (r *GormRepo) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("login = ?", account.Login).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateLogin
		}

		if account.User != nil {
			if err := tx.Create(account.User).Error; err != nil {
				return err
			}
			account.UserID = account.User.ID
		}

		// the user row is created above; keep gorm from saving it again
		return tx.Omit("User").Create(account).Error
	})
}

// SetRefreshTokenHash unconditionally replaces the stored digest. Used on
// login, where any prior session is superseded.
func (r *GormRepo) SetRefreshTokenHash(ctx context.Context, accountID uint, digest string) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("refresh_token_hash", digest).Error
}

// RotateRefreshTokenHash swaps the stored digest only if it still equals
// oldDigest. A stale predicate means a concurrent refresh (or a logout) won
// the race; the caller must treat that as an invalid token.
func (r *GormRepo) RotateRefreshTokenHash(ctx context.Context, accountID uint, oldDigest, newDigest string) error {
	result := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND refresh_token_hash = ?", accountID, oldDigest).
		Update("refresh_token_hash", newDigest)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRefreshHash
	}
	return nil
}

// ClearRefreshTokenHash ends the account's session. Clearing an unknown or
// already cleared account is not an error, so logout stays idempotent.
func (r *GormRepo) ClearRefreshTokenHash(ctx context.Context, accountID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("refresh_token_hash", nil).Error
}
