package store

import (
	"context"
	"fmt"

	"brokenexp/internal/apperr"
	"brokenexp/internal/feed"
	"brokenexp/internal/models"

	"gorm.io/gorm"
)

// ToggleMembership deletes the (user, issue) row of kind if present and inserts
// it otherwise. It returns the new state and the fresh count for the issue.
func (s *Store) ToggleMembership(ctx context.Context, kind feed.Kind, issueID, userID string) (bool, int64, error) {
	if userID == "" {
		return false, 0, apperr.ErrUnauthenticated
	}

	var model any
	var row func() any
	switch kind {
	case feed.Upvote:
		model = &models.Upvote{}
		row = func() any { return &models.Upvote{IssueID: issueID, UserID: userID} }
	case feed.Bookmark:
		model = &models.Bookmark{}
		row = func() any { return &models.Bookmark{IssueID: issueID, UserID: userID} }
	default:
		return false, 0, apperr.Invalid("kind", fmt.Sprintf("unknown toggle %q", kind))
	}

	var active bool
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.Select("id").First(&issue, "id = ?", issueID).Error; err != nil {
			return err
		}

		// 已存在则删除，否则插入
		res := tx.Where("issue_id = ? AND user_id = ?", issueID, userID).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(row()).Error; err != nil {
				return err
			}
			active = true
		}
		return tx.Model(model).Where("issue_id = ?", issueID).Count(&count).Error
	})
	if err != nil {
		return false, 0, wrap(fmt.Sprintf("toggle %s", kind), err)
	}
	return active, count, nil
}
