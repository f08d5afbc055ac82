package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // 时间重力
	WeightUpvote   float64
	WeightComment  float64
	WeightBookmark float64
	ScaleFactor    float64 // 放大系数
}

var DefaultConfig = RankConfig{
	Gravity:        1.5,
	WeightUpvote:   1.0,
	WeightComment:  2.0,
	WeightBookmark: 1.5,
	ScaleFactor:    100.0,
}

// TrendingScore ranks issues for the "most supported" widget: community engagement
// smoothed by log10 and decayed by age in hours.
func TrendingScore(createdAt time.Time, upvotes, comments, bookmarks int64, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(upvotes)*DefaultConfig.WeightUpvote +
		float64(comments)*DefaultConfig.WeightComment +
		float64(bookmarks)*DefaultConfig.WeightBookmark

	// log10(sum + 1) keeps zero engagement at zero
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor

	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
