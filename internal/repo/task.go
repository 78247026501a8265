package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/models"
)

func (r *GormRepo) TasksByUser(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormRepo) TaskByID(ctx context.Context, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, task *models.Task) error {
	return r.DB.WithContext(ctx).Create(task).Error
}

func (r *GormRepo) UpdateTask(ctx context.Context, task *models.Task) error {
	return r.DB.WithContext(ctx).Save(task).Error
}

func (r *GormRepo) DeleteTask(ctx context.Context, userID, taskID uint) error {
	result := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
