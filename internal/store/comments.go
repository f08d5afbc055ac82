package store

import (
	"context"
	"strings"

	"brokenexp/internal/apperr"
	"brokenexp/internal/models"

	"gorm.io/gorm"
)

const maxCommentLen = 2000

// ListComments returns the comments of an issue oldest first with their authors.
func (s *Store) ListComments(ctx context.Context, issueID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("issue_id = ?", issueID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, wrap("list comments", err)
	}
	return comments, nil
}

// CreateComment adds a comment, or a reply when parentID is set. Replies to a
// comment already at MaxCommentDepth are refused.
func (s *Store) CreateComment(ctx context.Context, issueID, authorID string, parentID *string, text string) (models.Comment, error) {
	text, err := cleanCommentText(text)
	if err != nil {
		return models.Comment{}, wrap("create comment", err)
	}
	c := models.Comment{IssueID: issueID, AuthorID: authorID, Text: text}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.Select("id").First(&issue, "id = ?", issueID).Error; err != nil {
			return err
		}
		if parentID != nil && *parentID != "" {
			var parent models.Comment
			if err := tx.First(&parent, "id = ? AND issue_id = ?", *parentID, issueID).Error; err != nil {
				return err
			}
			depth, err := replyDepth(parent)
			if err != nil {
				return err
			}
			c.ParentID = &parent.ID
			c.Depth = depth
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return models.Comment{}, wrap("create comment", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, "id = ?", c.ID).Error; err != nil {
		return models.Comment{}, wrap("create comment", err)
	}
	return c, nil
}

// UpdateComment edits the text of the author's own comment and marks it edited.
func (s *Store) UpdateComment(ctx context.Context, id, authorID, text string) (models.Comment, error) {
	text, err := cleanCommentText(text)
	if err != nil {
		return models.Comment{}, wrap("edit comment", err)
	}
	var c models.Comment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if c.AuthorID != authorID {
			return apperr.ErrForbidden
		}
		return tx.Model(&c).Updates(map[string]any{"text": text, "edited": true}).Error
	})
	if err != nil {
		return models.Comment{}, wrap("edit comment", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, "id = ?", id).Error; err != nil {
		return models.Comment{}, wrap("edit comment", err)
	}
	return c, nil
}

// DeleteComment removes the author's own comment and every reply beneath it.
func (s *Store) DeleteComment(ctx context.Context, id, authorID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if c.AuthorID != authorID {
			return apperr.ErrForbidden
		}

		// 逐层收集子评论
		ids := []string{c.ID}
		frontier := []string{c.ID}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	return wrap("delete comment", err)
}

func replyDepth(parent models.Comment) (int, error) {
	if !parent.CanReply() {
		return 0, apperr.Invalid("parent_id", "replies are nested too deeply")
	}
	return parent.Depth + 1, nil
}

func cleanCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", apperr.Invalid("text", "comment cannot be empty")
	case len([]rune(text)) > maxCommentLen:
		return "", apperr.Invalid("text", "comment is too long")
	}
	return text, nil
}
