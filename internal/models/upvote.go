package models

import (
	"time"
)

// Upvote links a user to an issue they support. At most one row per (user, issue).
type Upvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_upvote_user_issue" json:"issue_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_upvote_user_issue;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
