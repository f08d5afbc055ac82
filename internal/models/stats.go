package models

// Stats is the community dashboard aggregate.
type Stats struct {
	TotalIssues int64              `json:"total_issues"`
	ByStatus    map[Status]int64   `json:"by_status"`
	ByCategory  map[Category]int64 `json:"by_category"`
	Upvotes     int64              `json:"upvotes"`
	Comments    int64              `json:"comments"`
	Reporters   int64              `json:"reporters"`
	LastWeek    int64              `json:"last_week"` // reported in the last 7 days
	Trending    []Issue            `json:"trending"`
}

// EmptyStats is the fallback aggregate shown when the real one cannot be loaded.
func EmptyStats() Stats {
	s := Stats{
		ByStatus:   make(map[Status]int64, len(Statuses)),
		ByCategory: make(map[Category]int64, len(Categories)),
		Trending:   []Issue{},
	}
	for _, st := range Statuses {
		s.ByStatus[st] = 0
	}
	for _, c := range Categories {
		s.ByCategory[c] = 0
	}
	return s
}

// ResolutionRate is the share of issues resolved or closed, in percent.
func (s Stats) ResolutionRate() int {
	if s.TotalIssues == 0 {
		return 0
	}
	done := s.ByStatus[StatusResolved] + s.ByStatus[StatusClosed]
	return int(done * 100 / s.TotalIssues)
}
