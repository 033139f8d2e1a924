package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents the database model for users
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username       string    `gorm:"not null;size:100;uniqueIndex"`
	Email          string    `gorm:"not null;size:255;uniqueIndex"`
	PasswordHash   string    `gorm:"not null;size:255"`
	BusinessName   string    `gorm:"size:255"`
	CreditsBalance int64     `gorm:"not null;default:0;check:credits_balance >= 0"`
	LocationID     *string   `gorm:"size:100;uniqueIndex"`
	AuthType       string    `gorm:"not null;size:20;default:password"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
