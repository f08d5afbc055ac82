// Package gamification turns a user's activity into reputation points, a level
// and badges. Everything here is lookup tables and arithmetic.
package gamification

import "brokenexp/internal/models"

type Action string

const (
	ActionReport           Action = "report"
	ActionUpvoteReceived   Action = "upvote_received"
	ActionComment          Action = "comment"
	ActionIssueResolved    Action = "issue_resolved"
	ActionBookmarkReceived Action = "bookmark_received"
)

// 每个动作的积分
var pointsFor = map[Action]int{
	ActionReport:           10,
	ActionUpvoteReceived:   2,
	ActionComment:          3,
	ActionIssueResolved:    25,
	ActionBookmarkReceived: 1,
}

// Points returns what one occurrence of the action is worth. Unknown actions earn nothing.
func Points(a Action) int {
	return pointsFor[a]
}

// Activity is what a user has done, counted from the tables.
type Activity struct {
	Reports           int64
	UpvotesReceived   int64
	Comments          int64
	Resolved          int64 // own reports that reached resolved or closed
	BookmarksReceived int64
}

func (a Activity) Score() int {
	return int(a.Reports)*Points(ActionReport) +
		int(a.UpvotesReceived)*Points(ActionUpvoteReceived) +
		int(a.Comments)*Points(ActionComment) +
		int(a.Resolved)*Points(ActionIssueResolved) +
		int(a.BookmarksReceived)*Points(ActionBookmarkReceived)
}

type Level struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// Levels is ordered by MinPoints.
var Levels = []Level{
	{1, "Newcomer", 0},
	{2, "Contributor", 50},
	{3, "Active Citizen", 150},
	{4, "Community Champion", 400},
	{5, "Civic Hero", 1000},
	{6, "Legend", 2500},
}

// Progress describes where a score sits between two levels.
type Progress struct {
	Level   Level  `json:"level"`
	Next    *Level `json:"next,omitempty"` // nil at the top level
	Points  int    `json:"points"`
	ToNext  int    `json:"to_next"`
	Percent int    `json:"percent"`
}

func LevelFor(points int) Progress {
	if points < 0 {
		points = 0
	}
	idx := 0
	for i, l := range Levels {
		if points >= l.MinPoints {
			idx = i
		}
	}

	p := Progress{Level: Levels[idx], Points: points, Percent: 100}
	if idx+1 < len(Levels) {
		next := Levels[idx+1]
		span := next.MinPoints - p.Level.MinPoints
		p.Next = &next
		p.ToNext = next.MinPoints - points
		p.Percent = (points - p.Level.MinPoints) * 100 / span
	}
	return p
}

type badgeRule struct {
	badge  models.Badge
	earned func(Activity) bool
}

var badgeRules = []badgeRule{
	{
		models.Badge{ID: "first_report", Name: "First Report", Description: "Reported your first issue", Icon: "📍", Points: 5},
		func(a Activity) bool { return a.Reports >= 1 },
	},
	{
		models.Badge{ID: "five_reports", Name: "Watchful Eye", Description: "Reported five issues", Icon: "👀", Points: 20},
		func(a Activity) bool { return a.Reports >= 5 },
	},
	{
		models.Badge{ID: "community_voice", Name: "Community Voice", Description: "Left ten comments", Icon: "💬", Points: 15},
		func(a Activity) bool { return a.Comments >= 10 },
	},
	{
		models.Badge{ID: "problem_solver", Name: "Problem Solver", Description: "One of your reports got resolved", Icon: "🛠", Points: 25},
		func(a Activity) bool { return a.Resolved >= 1 },
	},
	{
		models.Badge{ID: "popular", Name: "Popular", Description: "Received 25 upvotes", Icon: "🔥", Points: 30},
		func(a Activity) bool { return a.UpvotesReceived >= 25 },
	},
}

// Catalog lists every badge, used to seed the badges table.
func Catalog() []models.Badge {
	out := make([]models.Badge, len(badgeRules))
	for i, r := range badgeRules {
		out[i] = r.badge
	}
	return out
}

// Earned returns the badges the activity qualifies for, in catalog order.
func Earned(a Activity) []models.Badge {
	var out []models.Badge
	for _, r := range badgeRules {
		if r.earned(a) {
			out = append(out, r.badge)
		}
	}
	return out
}

// Reputation is the activity score plus the bonus of every badge held.
func Reputation(a Activity) int {
	total := a.Score()
	for _, b := range Earned(a) {
		total += b.Points
	}
	return total
}
