package store

import (
	"context"
	"strings"

	"brokenexp/internal/apperr"
	"brokenexp/internal/models"

	"gorm.io/gorm"
)

// IssueUpdate carries the fields an owner may change. Nil means unchanged.
type IssueUpdate struct {
	Title       *string
	Description *string
	Category    *models.Category
	Priority    *models.Priority
	Status      *models.Status
	Address     *string
	ImageURL    *string
}

// ListIssues returns every issue newest first, with counts, reporter profile and
// the viewer's upvoted/bookmarked flags. viewerID may be empty.
func (s *Store) ListIssues(ctx context.Context, viewerID string) ([]models.Issue, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Order("created_at desc").
		Find(&issues).Error
	if err != nil {
		return nil, wrap("list issues", err)
	}
	if err := s.decorate(ctx, issues, viewerID); err != nil {
		return nil, wrap("list issues", err)
	}
	return issues, nil
}

// IssuesByReporter is the "my reports" list of a profile page.
func (s *Store) IssuesByReporter(ctx context.Context, reporterID, viewerID string) ([]models.Issue, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Where("reporter_id = ?", reporterID).
		Order("created_at desc").
		Find(&issues).Error
	if err != nil {
		return nil, wrap("list reporter issues", err)
	}
	if err := s.decorate(ctx, issues, viewerID); err != nil {
		return nil, wrap("list reporter issues", err)
	}
	return issues, nil
}

// BookmarkedIssues lists what userID saved, newest bookmark first.
func (s *Store) BookmarkedIssues(ctx context.Context, userID string) ([]models.Issue, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Joins("JOIN bookmarks ON bookmarks.issue_id = issues.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at desc").
		Find(&issues).Error
	if err != nil {
		return nil, wrap("list bookmarks", err)
	}
	if err := s.decorate(ctx, issues, userID); err != nil {
		return nil, wrap("list bookmarks", err)
	}
	return issues, nil
}

func (s *Store) GetIssue(ctx context.Context, id, viewerID string) (models.Issue, error) {
	var issue models.Issue
	if err := s.db.WithContext(ctx).Preload("Reporter").First(&issue, "id = ?", id).Error; err != nil {
		return models.Issue{}, wrap("get issue", err)
	}
	one := []models.Issue{issue}
	if err := s.decorate(ctx, one, viewerID); err != nil {
		return models.Issue{}, wrap("get issue", err)
	}
	return one[0], nil
}

// CreateIssue stores a new report. reporterID may be empty for anonymous reports.
func (s *Store) CreateIssue(ctx context.Context, reporterID string, issue *models.Issue) error {
	if err := validateIssue(issue); err != nil {
		return wrap("create issue", err)
	}
	issue.ID = ""
	issue.ReporterID = nil
	if reporterID != "" {
		issue.ReporterID = &reporterID
	}
	if issue.Priority == "" {
		issue.Priority = models.PriorityMedium
	}
	issue.Status = models.StatusPending
	if err := s.db.WithContext(ctx).Create(issue).Error; err != nil {
		return wrap("create issue", err)
	}
	return nil
}

// UpdateIssue applies upd if userID reported the issue.
func (s *Store) UpdateIssue(ctx context.Context, id, userID string, upd IssueUpdate) (models.Issue, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.First(&issue, "id = ?", id).Error; err != nil {
			return err
		}
		if !issue.OwnedBy(userID) {
			return apperr.ErrForbidden
		}

		changes := map[string]any{}
		if upd.Title != nil {
			issue.Title = strings.TrimSpace(*upd.Title)
			changes["title"] = issue.Title
		}
		if upd.Description != nil {
			issue.Description = strings.TrimSpace(*upd.Description)
			changes["description"] = issue.Description
		}
		if upd.Category != nil {
			issue.Category = *upd.Category
			changes["category"] = issue.Category
		}
		if upd.Priority != nil {
			issue.Priority = *upd.Priority
			changes["priority"] = issue.Priority
		}
		if upd.Status != nil {
			if !upd.Status.Valid() {
				return apperr.Invalid("status", "unknown status")
			}
			changes["status"] = *upd.Status
		}
		if upd.Address != nil {
			changes["address"] = strings.TrimSpace(*upd.Address)
		}
		if upd.ImageURL != nil {
			if *upd.ImageURL == "" {
				changes["image_url"] = nil
			} else {
				changes["image_url"] = *upd.ImageURL
			}
		}
		if err := validateIssue(&issue); err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&models.Issue{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return models.Issue{}, wrap("update issue", err)
	}
	return s.GetIssue(ctx, id, userID)
}

// DeleteIssue removes an issue owned by userID together with its comments,
// upvotes and bookmarks.
func (s *Store) DeleteIssue(ctx context.Context, id, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.First(&issue, "id = ?", id).Error; err != nil {
			return err
		}
		if !issue.OwnedBy(userID) {
			return apperr.ErrForbidden
		}
		// 先删除关联数据
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Upvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&issue).Error
	})
	return wrap("delete issue", err)
}

func validateIssue(issue *models.Issue) error {
	switch {
	case strings.TrimSpace(issue.Title) == "":
		return apperr.Invalid("title", "is required")
	case len(issue.Title) > 200:
		return apperr.Invalid("title", "must be at most 200 characters")
	case strings.TrimSpace(issue.Description) == "":
		return apperr.Invalid("description", "is required")
	case !issue.Category.Valid():
		return apperr.Invalid("category", "unknown category")
	case issue.Priority != "" && !issue.Priority.Valid():
		return apperr.Invalid("priority", "unknown priority")
	case issue.Latitude < -90 || issue.Latitude > 90:
		return apperr.Invalid("latitude", "out of range")
	case issue.Longitude < -180 || issue.Longitude > 180:
		return apperr.Invalid("longitude", "out of range")
	}
	return nil
}

type countRow struct {
	IssueID string
	N       int64
}

// decorate fills the computed fields of issues in place.
func (s *Store) decorate(ctx context.Context, issues []models.Issue, viewerID string) error {
	if len(issues) == 0 {
		return nil
	}
	ids := make([]string, len(issues))
	for i := range issues {
		ids[i] = issues[i].ID
	}

	db := s.db.WithContext(ctx)
	counts := func(model any) (map[string]int64, error) {
		var rows []countRow
		err := db.Model(model).
			Select("issue_id, count(*) as n").
			Where("issue_id IN ?", ids).
			Group("issue_id").
			Scan(&rows).Error
		out := make(map[string]int64, len(rows))
		for _, r := range rows {
			out[r.IssueID] = r.N
		}
		return out, err
	}
	mine := func(model any) (map[string]bool, error) {
		out := map[string]bool{}
		if viewerID == "" {
			return out, nil
		}
		var got []string
		err := db.Model(model).
			Where("issue_id IN ? AND user_id = ?", ids, viewerID).
			Pluck("issue_id", &got).Error
		for _, id := range got {
			out[id] = true
		}
		return out, err
	}

	upvotes, err := counts(&models.Upvote{})
	if err != nil {
		return err
	}
	comments, err := counts(&models.Comment{})
	if err != nil {
		return err
	}
	bookmarks, err := counts(&models.Bookmark{})
	if err != nil {
		return err
	}
	upvoted, err := mine(&models.Upvote{})
	if err != nil {
		return err
	}
	bookmarked, err := mine(&models.Bookmark{})
	if err != nil {
		return err
	}

	for i := range issues {
		id := issues[i].ID
		issues[i].UpvoteCount = upvotes[id]
		issues[i].CommentCount = comments[id]
		issues[i].BookmarkCount = bookmarks[id]
		issues[i].Upvoted = upvoted[id]
		issues[i].Bookmarked = bookmarked[id]
	}
	return nil
}
