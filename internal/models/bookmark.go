package models

import (
	"time"
)

// Bookmark 收藏 - 用户保存的问题
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_bookmark_user_issue" json:"issue_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_bookmark_user_issue;index" json:"user_id"`
	Issue     Issue     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
