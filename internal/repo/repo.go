package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateLogin   = errors.New("login already exists")
	ErrStaleRefreshHash = errors.New("refresh token hash already rotated")
)

// GormRepo is the persistence boundary for accounts, users, tasks and
// categories.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
