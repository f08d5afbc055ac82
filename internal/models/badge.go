package models

import (
	"time"
)

type Badge struct {
	ID          string `gorm:"primaryKey;size:40" json:"id"` // slug, e.g. "first_report"
	Name        string `gorm:"size:80;not null" json:"name"`
	Description string `gorm:"size:200" json:"description"`
	Icon        string `gorm:"size:16" json:"icon"`
	Points      int    `gorm:"default:0" json:"points"`
}

type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID   string    `gorm:"size:40;not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge     Badge     `gorm:"constraint:OnDelete:CASCADE;" json:"badge"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}
