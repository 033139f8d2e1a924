package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Video is a generation job row
type Video struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_videos_user_created,priority:1"`
	Prompt            string         `gorm:"type:text;not null"`
	AdditionalDetails string         `gorm:"type:text"`
	Service           string         `gorm:"not null;size:20"`
	Tier              string         `gorm:"not null;size:20"`
	VideoType         string         `gorm:"not null;size:20"`
	AspectRatio       string         `gorm:"not null;size:20"`
	RequestedEmail    string         `gorm:"size:255"`
	SourceImages      datatypes.JSON `gorm:"type:jsonb"`
	ChargedCredits    int64          `gorm:"not null"`
	Status            string         `gorm:"not null;size:20;index"`
	VideoURL          string         `gorm:"type:text"`
	ErrorMessage      string         `gorm:"type:text"`
	TaskID            string         `gorm:"size:255"`
	CreatedAt         time.Time      `gorm:"not null;index:idx_videos_user_created,priority:2,sort:desc"`
	UpdatedAt         time.Time      `gorm:"not null"`
	CompletedAt       *time.Time

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Video
func (Video) TableName() string {
	return "videos"
}
