package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentDepth is the deepest reply level; comments at this depth cannot be replied to.
const MaxCommentDepth = 5

type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	IssueID   string    `gorm:"type:varchar(36);not null;index" json:"issue_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Author    *Profile  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parent_id"` // nil for top-level comments
	Depth     int       `gorm:"not null;default:0" json:"depth"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Edited    bool      `gorm:"default:false" json:"edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CanReply reports whether another reply level fits under this comment.
func (c *Comment) CanReply() bool {
	return c.Depth < MaxCommentDepth
}
