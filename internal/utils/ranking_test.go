package utils

import (
	"testing"
	"time"
)

func TestTrendingScore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := TrendingScore(now, 0, 0, 0, now); got != 0 {
		t.Errorf("no engagement should score 0, got %f", got)
	}

	fresh := TrendingScore(now.Add(-time.Hour), 10, 2, 1, now)
	stale := TrendingScore(now.Add(-72*time.Hour), 10, 2, 1, now)
	if fresh <= stale {
		t.Errorf("older issues should decay: fresh=%f stale=%f", fresh, stale)
	}

	more := TrendingScore(now.Add(-time.Hour), 50, 2, 1, now)
	if more <= fresh {
		t.Errorf("more upvotes should score higher: %f <= %f", more, fresh)
	}
}
