package models

import (
	"time"
)

// Badge is an awarded achievement. Name is the identity key per user.
type Badge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_badges_user_name" json:"user_id"`
	Name        string    `gorm:"not null;uniqueIndex:idx_badges_user_name" json:"name"`
	Description string    `json:"description"`
	Icon        string    `gorm:"size:16" json:"icon"`
	AwardedAt   time.Time `gorm:"not null;index" json:"awarded_at"`
}

func (Badge) TableName() string { return "badges" }
