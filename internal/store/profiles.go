package store

import (
	"context"
	"strings"

	"brokenexp/internal/apperr"
	"brokenexp/internal/gamification"
	"brokenexp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureProfile returns the user's profile, creating it on first sign-in.
func (s *Store) EnsureProfile(ctx context.Context, userID, email string) (models.Profile, error) {
	p := models.Profile{ID: userID}
	err := s.db.WithContext(ctx).
		Attrs(models.Profile{Name: displayName("", email)}).
		FirstOrCreate(&p, "id = ?", userID).Error
	if err != nil {
		return models.Profile{}, wrap("ensure profile", err)
	}
	return p, nil
}

// GetProfile loads a public profile with its badges.
func (s *Store) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).
		Preload("Badges", func(db *gorm.DB) *gorm.DB { return db.Order("awarded_at asc") }).
		Preload("Badges.Badge").
		First(&p, "id = ?", id).Error
	if err != nil {
		return models.Profile{}, wrap("get profile", err)
	}
	return p, nil
}

// UpdateProfile changes name and avatar. Only the owner may do so.
func (s *Store) UpdateProfile(ctx context.Context, id, userID, name, avatarURL string) (models.Profile, error) {
	if id != userID {
		return models.Profile{}, wrap("update profile", apperr.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Profile{}, wrap("update profile", apperr.Invalid("name", "is required"))
	}
	if len([]rune(name)) > 80 {
		return models.Profile{}, wrap("update profile", apperr.Invalid("name", "must be at most 80 characters"))
	}

	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "avatar_url": strings.TrimSpace(avatarURL)})
	if res.Error != nil {
		return models.Profile{}, wrap("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Profile{}, wrap("update profile", apperr.ErrNotFound)
	}
	return s.GetProfile(ctx, id)
}

// ProfileIDs lists every profile, used by the reputation job.
func (s *Store) ProfileIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Pluck("id", &ids).Error; err != nil {
		return nil, wrap("list profiles", err)
	}
	return ids, nil
}

// Activity counts what a user did and what others did to their reports.
func (s *Store) Activity(ctx context.Context, userID string) (gamification.Activity, error) {
	var a gamification.Activity
	db := s.db.WithContext(ctx)

	own := db.Model(&models.Issue{}).Select("id").Where("reporter_id = ?", userID)
	steps := []*gorm.DB{
		db.Model(&models.Issue{}).Where("reporter_id = ?", userID).Count(&a.Reports),
		db.Model(&models.Issue{}).Where("reporter_id = ? AND status IN ?", userID,
			[]models.Status{models.StatusResolved, models.StatusClosed}).Count(&a.Resolved),
		db.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&a.Comments),
		db.Model(&models.Upvote{}).Where("issue_id IN (?) AND user_id <> ?", own, userID).Count(&a.UpvotesReceived),
		db.Model(&models.Bookmark{}).Where("issue_id IN (?) AND user_id <> ?", own, userID).Count(&a.BookmarksReceived),
	}
	for _, step := range steps {
		if step.Error != nil {
			return gamification.Activity{}, wrap("count activity", step.Error)
		}
	}
	return a, nil
}

// ApplyReputation stores the reputation and awards any badge not held yet.
// It returns how many badges were newly awarded.
func (s *Store) ApplyReputation(ctx context.Context, userID string, reputation int, badges []models.Badge) (int, error) {
	awarded := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).Where("id = ?", userID).
			Update("reputation", reputation).Error; err != nil {
			return err
		}
		for _, b := range badges {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(&models.UserBadge{UserID: userID, BadgeID: b.ID})
			if res.Error != nil {
				return res.Error
			}
			awarded += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, wrap("apply reputation", err)
	}
	return awarded, nil
}
