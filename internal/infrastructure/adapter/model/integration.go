package model

import (
	"time"

	"github.com/google/uuid"
)

// Integration stores a user's CRM credentials and cached account details
type Integration struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	APIKey       string    `gorm:"not null;size:512"`
	LocationID   string    `gorm:"not null;size:100"`
	BusinessName string    `gorm:"size:255"`
	Email        string    `gorm:"size:255"`
	Phone        string    `gorm:"size:50"`
	IsConnected  bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Integration
func (Integration) TableName() string {
	return "integrations"
}
