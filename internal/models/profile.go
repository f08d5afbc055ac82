package models

import (
	"time"
)

// Profile is the public, denormalized identity of a user. Its ID equals the User ID.
type Profile struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string      `gorm:"size:80;not null" json:"name"`
	AvatarURL  string      `json:"avatar_url"`
	Reputation int         `gorm:"default:0" json:"reputation"`
	Badges     []UserBadge `gorm:"foreignKey:UserID" json:"badges,omitempty"`
	CreatedAt  time.Time   `json:"joined_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
