package model

import (
	"time"

	"github.com/google/uuid"
)

// Transaction represents a credit purchase through hosted checkout
type Transaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents int64     `gorm:"not null"`
	Credits     int64     `gorm:"not null"`
	Status      string    `gorm:"not null;size:20;index"`
	SessionID   *string   `gorm:"size:255;uniqueIndex"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Transaction; rows are payments
func (Transaction) TableName() string {
	return "payments"
}
