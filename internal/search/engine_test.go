package search

import (
	"fmt"
	"testing"
	"time"

	"brokenexp/internal/models"
	"github.com/matryer/is"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewAt(func() time.Time { return testNow })
}

func issue(id, title string, opts ...func(*models.Issue)) models.Issue {
	i := models.Issue{
		ID:        id,
		Title:     title,
		Category:  models.CategoryInfrastructure,
		Priority:  models.PriorityMedium,
		Status:    models.StatusPending,
		CreatedAt: testNow.Add(-time.Hour),
	}
	for _, o := range opts {
		o(&i)
	}
	return i
}

func withStatus(s models.Status) func(*models.Issue) {
	return func(i *models.Issue) { i.Status = s }
}

func withCategory(c models.Category) func(*models.Issue) {
	return func(i *models.Issue) { i.Category = c }
}

func withPriority(p models.Priority) func(*models.Issue) {
	return func(i *models.Issue) { i.Priority = p }
}

func withCreated(t time.Time) func(*models.Issue) {
	return func(i *models.Issue) { i.CreatedAt = t }
}

func withReporter(name string) func(*models.Issue) {
	return func(i *models.Issue) { i.Reporter = &models.Profile{ID: "p-" + name, Name: name} }
}

func ids(issues []models.Issue) []string {
	out := make([]string, len(issues))
	for i, it := range issues {
		out[i] = it.ID
	}
	return out
}

func TestExactSearch(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "Pothole on Oak St"),
		issue("2", "Broken light"),
	}

	res := testEngine().Filter(issues, "pothole", FilterSet{})
	is.Equal(ids(res.Exact), []string{"1"})
	is.Equal(len(res.Similar), 0) // exact hit suppresses similar results
}

func TestExactSearchFields(t *testing.T) {
	is := is.New(t)
	a := issue("1", "Streetlight out")
	a.Address = "12 Hope Road, Kingston"
	b := issue("2", "Blocked drain", withReporter("Marcia Brown"))
	c := issue("3", "Fallen tree")
	c.Description = "Tree across the footpath near the school"

	issues := []models.Issue{a, b, c}
	e := testEngine()

	is.Equal(ids(e.Filter(issues, "HOPE road", FilterSet{}).Exact), []string{"1"})
	is.Equal(ids(e.Filter(issues, "marcia", FilterSet{}).Exact), []string{"2"})
	is.Equal(ids(e.Filter(issues, "footpath", FilterSet{}).Exact), []string{"3"})
}

func TestEmptyQueryReturnsEverythingInOrder(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{issue("3", "c"), issue("1", "a"), issue("2", "b")}

	res := testEngine().Filter(issues, "   ", FilterSet{Status: "all", Category: "all"})
	is.Equal(ids(res.Exact), []string{"3", "1", "2"})
	is.Equal(len(res.Similar), 0)
}

func TestFallbackSearch(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "Pothole on Oak St", withCategory(models.CategoryInfrastructure)),
	}

	res := testEngine().Filter(issues, "potholes downtown", FilterSet{})
	is.Equal(len(res.Exact), 0)
	is.Equal(ids(res.Similar), []string{"1"}) // "potholes" contains the word "pothole"
}

func TestFallbackTokenInsideWord(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{issue("1", "Potholes everywhere on Main St")}

	res := testEngine().Filter(issues, "pothole downtown", FilterSet{})
	is.Equal(len(res.Exact), 0)
	is.Equal(ids(res.Similar), []string{"1"}) // "pothole" is a substring of "potholes"
}

func TestFallbackNoiseQuery(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{issue("1", "Pothole on Oak St")}

	for _, q := range []string{"?!", "a b c", "-- ..", "on st"} {
		res := testEngine().Filter(issues, q, FilterSet{})
		is.Equal(len(res.Exact), 0)
		is.Equal(len(res.Similar), 0) // only short tokens
	}
}

func TestFallbackLoosensStatusAndCategory(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "Water main leak", withStatus(models.StatusInProgress), withCategory(models.CategoryMaintenance)),
		issue("2", "Water pooling", withStatus(models.StatusResolved), withCategory(models.CategoryMaintenance)),
		issue("3", "Water on road", withStatus(models.StatusPending), withCategory(models.CategorySafety)),
	}

	f := FilterSet{Status: models.StatusPending, Category: models.CategoryInfrastructure}
	res := testEngine().Filter(issues, "water", f)
	is.Equal(len(res.Exact), 0)
	// pending also admits in_progress; infrastructure also admits maintenance
	is.Equal(ids(res.Similar), []string{"1"})
}

func TestFallbackFiltersOnly(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "Cracked kerb", withStatus(models.StatusInProgress)),
		issue("2", "Graffiti", withStatus(models.StatusClosed)),
	}

	res := testEngine().Filter(issues, "", FilterSet{Status: models.StatusPending})
	is.Equal(len(res.Exact), 0)
	is.Equal(ids(res.Similar), []string{"1"})
}

func TestSimilarCap(t *testing.T) {
	is := is.New(t)
	var issues []models.Issue
	for i := 0; i < 25; i++ {
		issues = append(issues, issue(fmt.Sprint(i), fmt.Sprintf("Pothole number %d", i)))
	}

	res := testEngine().Filter(issues, "potholes everywhere", FilterSet{})
	is.Equal(len(res.Exact), 0)
	is.Equal(len(res.Similar), SimilarLimit)
	is.Equal(res.Similar[0].ID, "0") // input order kept up to the cap
	is.Equal(res.Similar[9].ID, "9")
}

func TestSimilarKeepsStrictFilters(t *testing.T) {
	issues := []models.Issue{
		issue("low", "Pothole on Oak St", withPriority(models.PriorityLow)),
		issue("old", "Pothole on Elm St", withCreated(testNow.AddDate(-3, 0, 0))),
	}
	from := testNow.AddDate(0, 0, -2)

	tests := []struct {
		name  string
		query string
		f     FilterSet
		want  []string
	}{
		{"priority", "potholes", FilterSet{Priority: models.PriorityCritical}, []string{}},
		{"date from", "potholes", FilterSet{DateFrom: &from}, []string{"low"}},
		{"within", "potholes", FilterSet{Within: WithinMonth}, []string{"low"}},
		{"within and author", "", FilterSet{Within: WithinToday, Author: "nobody"}, []string{}},
	}
	for _, tt := range tests {
		res := testEngine().Filter(issues, tt.query, tt.f)
		if len(res.Exact) != 0 {
			t.Errorf("%s: exact = %v, want none", tt.name, ids(res.Exact))
		}
		if got := ids(res.Similar); fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("%s: similar = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDateRange(t *testing.T) {
	is := is.New(t)
	day := func(d int, h int) time.Time { return time.Date(2024, 6, d, h, 0, 0, 0, time.UTC) }
	issues := []models.Issue{
		issue("1", "a", withCreated(day(1, 9))),
		issue("2", "b", withCreated(day(10, 23))),
		issue("3", "c", withCreated(day(11, 0))),
	}
	from := day(1, 18) // start of day is used
	to := day(10, 0)   // end of day is used

	res := testEngine().Filter(issues, "", FilterSet{DateFrom: &from, DateTo: &to})
	is.Equal(ids(res.Exact), []string{"1", "2"})

	// inverted range matches nothing
	res = testEngine().Filter(issues, "", FilterSet{DateFrom: &to, DateTo: &from})
	is.Equal(len(res.Exact), 0)
}

func TestWithinBuckets(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("today", "a", withCreated(testNow.Add(-2*time.Hour))),
		issue("yesterday", "b", withCreated(testNow.Add(-20*time.Hour))),
		issue("lastweek", "c", withCreated(testNow.AddDate(0, 0, -10))),
		issue("lastyear", "d", withCreated(testNow.AddDate(-2, 0, 0))),
	}
	e := testEngine()

	is.Equal(ids(e.Filter(issues, "", FilterSet{Within: WithinToday}).Exact), []string{"today"})
	is.Equal(ids(e.Filter(issues, "", FilterSet{Within: WithinWeek}).Exact), []string{"today", "yesterday"})
	is.Equal(ids(e.Filter(issues, "", FilterSet{Within: WithinMonth}).Exact), []string{"today", "yesterday", "lastweek"})
	is.Equal(len(e.Filter(issues, "", FilterSet{Within: WithinYear}).Exact), 3)
}

func TestAuthorFilter(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "a", withReporter("Desmond Dekker")),
		issue("2", "b"),
	}

	res := testEngine().Filter(issues, "", FilterSet{Author: "dekk"})
	is.Equal(ids(res.Exact), []string{"1"})
}

func TestStricterFilterNeverGrowsExact(t *testing.T) {
	is := is.New(t)
	var issues []models.Issue
	for i, s := range models.Statuses {
		for j, c := range models.Categories {
			issues = append(issues, issue(fmt.Sprintf("%d-%d", i, j), "Road damage", withStatus(s), withCategory(c)))
		}
	}
	e := testEngine()

	base := len(e.Filter(issues, "road", FilterSet{}).Exact)
	for _, s := range models.Statuses {
		narrowed := e.Filter(issues, "road", FilterSet{Status: s})
		is.True(len(narrowed.Exact) <= base)
		for _, c := range models.Categories {
			narrower := e.Filter(issues, "road", FilterSet{Status: s, Category: c})
			is.True(len(narrower.Exact) <= len(narrowed.Exact))
		}
	}
}

func TestSimilarOnlyWhenExactEmpty(t *testing.T) {
	is := is.New(t)
	issues := []models.Issue{
		issue("1", "Pothole on Oak St"),
		issue("2", "Broken streetlight"),
	}
	queries := []string{"", "pothole", "potholes downtown", "light", "lights broken", "zzz", "??"}
	filters := []FilterSet{{}, {Status: models.StatusResolved}, {Category: models.CategorySafety}}

	for _, q := range queries {
		for _, f := range filters {
			res := testEngine().Filter(issues, q, f)
			if len(res.Exact) > 0 {
				is.Equal(len(res.Similar), 0)
			}
			is.True(len(res.Similar) <= SimilarLimit)
		}
	}
}

func TestTokenize(t *testing.T) {
	is := is.New(t)
	is.Equal(Tokenize("  Potholes, DOWNTOWN!! on a st "), []string{"potholes", "downtown"})
	is.Equal(len(Tokenize("?? .. !")), 0)
}
