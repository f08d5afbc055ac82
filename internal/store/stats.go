package store

import (
	"context"
	"sort"
	"time"

	"brokenexp/internal/models"
	"brokenexp/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const trendingLimit = 5

type statusRow struct {
	Status models.Status
	N      int64
}

type categoryRow struct {
	Category models.Category
	N        int64
}

// Stats runs the aggregate queries concurrently.
func (s *Store) Stats(ctx context.Context, now time.Time) (models.Stats, error) {
	out := models.EmptyStats()
	g, gctx := errgroup.WithContext(ctx)
	db := func() *gorm.DB { return s.db.WithContext(gctx) }

	g.Go(func() error {
		var rows []statusRow
		if err := db().Model(&models.Issue{}).Select("status, count(*) as n").Group("status").Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			out.ByStatus[r.Status] = r.N
		}
		return nil
	})
	var byCategory []categoryRow
	g.Go(func() error {
		return db().Model(&models.Issue{}).Select("category, count(*) as n").Group("category").Scan(&byCategory).Error
	})
	g.Go(func() error {
		return db().Model(&models.Issue{}).Count(&out.TotalIssues).Error
	})
	g.Go(func() error {
		return db().Model(&models.Upvote{}).Count(&out.Upvotes).Error
	})
	g.Go(func() error {
		return db().Model(&models.Comment{}).Count(&out.Comments).Error
	})
	g.Go(func() error {
		return db().Model(&models.Issue{}).Where("reporter_id IS NOT NULL").
			Distinct("reporter_id").Count(&out.Reporters).Error
	})
	g.Go(func() error {
		return db().Model(&models.Issue{}).Where("created_at >= ?", now.AddDate(0, 0, -7)).Count(&out.LastWeek).Error
	})
	var recent []models.Issue
	g.Go(func() error {
		var err error
		recent, err = s.recentForTrending(gctx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.EmptyStats(), wrap("stats", err)
	}
	for _, r := range byCategory {
		out.ByCategory[r.Category] = r.N
	}
	out.Trending = Trending(recent, now, trendingLimit)
	return out, nil
}

// recentForTrending loads the last month of issues with their counts.
func (s *Store) recentForTrending(ctx context.Context, now time.Time) ([]models.Issue, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Where("created_at >= ?", now.AddDate(0, -1, 0)).
		Order("created_at desc").
		Limit(200).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, s.decorate(ctx, issues, "")
}

// Trending orders issues by engagement decayed by age and keeps the first limit.
func Trending(issues []models.Issue, now time.Time, limit int) []models.Issue {
	ranked := make([]models.Issue, len(issues))
	copy(ranked, issues)
	score := func(i models.Issue) float64 {
		return utils.TrendingScore(i.CreatedAt, i.UpvoteCount, i.CommentCount, i.BookmarkCount, now)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return score(ranked[a]) > score(ranked[b])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
