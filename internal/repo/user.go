package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
)

func (r *GormRepo) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the profile together with its account, tasks and
// categories. Dropping the account row kills any active session: the stored
// refresh hash disappears with it.
//
// Tasks and categories are owned by the account id, not the user id, so the
// account is resolved first and the cascade keys on it. The two sequences are
// independent and must never be conflated.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var account models.Account
		err := tx.Where("user_id = ?", id).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// profile without credentials owns nothing
			return tx.Delete(&user).Error
		case err != nil:
			return err
		}

		if err := tx.Where("user_id = ?", account.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", account.ID).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&account).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
