package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
)

func (r *GormRepo) CategoriesByUser(ctx context.Context, userID uint) ([]models.Category, error) {
	var categories []models.Category
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormRepo) CategoryByID(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.DB.WithContext(ctx).Create(category).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, userID, categoryID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		// tasks keep existing without the category
		return tx.Model(&models.Task{}).
			Where("category_id = ? AND user_id = ?", categoryID, userID).
			Update("category_id", nil).Error
	})
}
