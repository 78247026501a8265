package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CPF       string    `gorm:"unique;not null"          json:"cpf"`
	Email     string    `gorm:"unique;not null"          json:"email"`
	Name      string    `gorm:"not null"                 json:"name"`
	Roles     []string  `gorm:"serializer:json;not null" json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is the login identity. RefreshTokenHash holds the digest of the
// single currently valid refresh token, nil when no session is active.
type Account struct {
	ID               uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Login            string  `gorm:"unique;not null"          json:"login"`
	PasswordHash     string  `gorm:"not null"                 json:"-"`
	RefreshTokenHash *string `json:"-"`
	UserID           uint    `gorm:"uniqueIndex;not null"     json:"user_id"`
	User             *User   `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

type Task struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `json:"description"`
	Done        bool      `gorm:"default:false"            json:"done"`
	UserID      uint      `gorm:"index;not null"           json:"user_id"`
	CategoryID  *uint     `gorm:"index"                    json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"not null"                 json:"name"`
	UserID uint   `gorm:"index;not null"           json:"user_id"`
}
