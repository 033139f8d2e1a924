package model

import (
	"time"

	"github.com/google/uuid"
)

// CreditEntry is one row of the append-only credit ledger
type CreditEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_credit_entries_user_created,priority:1"`
	Amount      int64     `gorm:"not null"`
	Kind        string    `gorm:"not null;size:20"`
	Description string    `gorm:"size:255"`
	// Reference is NULL when the entry has no idempotency key
	Reference *string   `gorm:"size:255;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;index:idx_credit_entries_user_created,priority:2,sort:desc"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for CreditEntry
func (CreditEntry) TableName() string {
	return "credit_entries"
}
