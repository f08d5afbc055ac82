// Package search filters the in-memory issue feed the way every surface shows it:
// an exact conjunctive pass, and a looser "similar results" pass used only when the
// exact pass comes back empty.
package search

import (
	"strings"
	"time"
	"unicode"

	"brokenexp/internal/models"
)

// SimilarLimit caps the fallback list.
const SimilarLimit = 10

// minTokenLen is the shortest query token kept by the similar pass (shorter ones are noise).
const minTokenLen = 3

// minStemLen is the shortest text word that may match inside a longer query token.
const minStemLen = 4

// Within is a relative "reported within" bucket.
type Within string

const (
	WithinAny   Within = ""
	WithinToday Within = "today"
	WithinWeek  Within = "week"
	WithinMonth Within = "month"
	WithinYear  Within = "year"
)

// Valid reports whether w is a known bucket.
func (w Within) Valid() bool {
	switch w {
	case WithinAny, WithinToday, WithinWeek, WithinMonth, WithinYear:
		return true
	}
	return false
}

// FilterSet holds the structured criteria. Zero values and "all" mean no constraint.
type FilterSet struct {
	Status   models.Status
	Category models.Category
	Priority models.Priority
	Author   string
	DateFrom *time.Time
	DateTo   *time.Time
	Within   Within
}

// Result is what the feed renders.
type Result struct {
	Exact   []models.Issue
	Similar []models.Issue
}

// Engine is pure with respect to the issues it filters.
type Engine struct {
	now func() time.Time
}

// New returns an engine that measures relative buckets from time.Now.
func New() *Engine {
	return &Engine{now: time.Now}
}

// NewAt returns an engine with a fixed clock.
func NewAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Filter runs the exact pass and, when it is empty and the criteria are non-trivial,
// the similar pass. Input order is preserved in both lists.
func (e *Engine) Filter(issues []models.Issue, query string, f FilterSet) Result {
	now := e.now()
	q := strings.ToLower(strings.TrimSpace(query))

	exact := make([]models.Issue, 0)
	for _, issue := range issues {
		if matchesText(issue, q) && f.matchExact(issue, now) {
			exact = append(exact, issue)
		}
	}

	res := Result{Exact: exact, Similar: []models.Issue{}}
	if len(exact) > 0 || (q == "" && f.trivial()) {
		return res
	}
	res.Similar = e.similar(issues, q, f, now)
	return res
}

func (e *Engine) similar(issues []models.Issue, q string, f FilterSet, now time.Time) []models.Issue {
	tokens := Tokenize(q)
	// Only noise in the query: nothing sensible to relax towards.
	if q != "" && len(tokens) == 0 {
		return []models.Issue{}
	}

	out := make([]models.Issue, 0, SimilarLimit)
	for _, issue := range issues {
		if len(out) == SimilarLimit {
			break
		}
		if !statusNear(f.Status, issue.Status) || !categoryNear(f.Category, issue.Category) {
			continue
		}
		// priority, author and dates are never loosened
		if !f.matchStrict(issue, now) {
			continue
		}
		if len(tokens) > 0 && !matchesAnyToken(searchText(issue), tokens) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

func (f FilterSet) trivial() bool {
	return isAll(string(f.Status)) && isAll(string(f.Category)) && isAll(string(f.Priority)) &&
		strings.TrimSpace(f.Author) == "" && f.DateFrom == nil && f.DateTo == nil && f.Within == WithinAny
}

func (f FilterSet) matchExact(issue models.Issue, now time.Time) bool {
	if !isAll(string(f.Status)) && issue.Status != f.Status {
		return false
	}
	if !isAll(string(f.Category)) && issue.Category != f.Category {
		return false
	}
	return f.matchStrict(issue, now)
}

// matchStrict applies the clauses the similar pass keeps as they are.
func (f FilterSet) matchStrict(issue models.Issue, now time.Time) bool {
	if !isAll(string(f.Priority)) && issue.Priority != f.Priority {
		return false
	}
	if author := strings.ToLower(strings.TrimSpace(f.Author)); author != "" {
		if !strings.Contains(strings.ToLower(issue.ReporterName()), author) {
			return false
		}
	}
	if f.DateFrom != nil && issue.CreatedAt.Before(startOfDay(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && !issue.CreatedAt.Before(startOfDay(*f.DateTo).AddDate(0, 0, 1)) {
		return false
	}
	if since, ok := f.Within.since(now); ok && issue.CreatedAt.Before(since) {
		return false
	}
	return true
}

// since returns the lower bound of the bucket, measured from now.
func (w Within) since(now time.Time) (time.Time, bool) {
	switch w {
	case WithinToday:
		return startOfDay(now), true
	case WithinWeek:
		return now.AddDate(0, 0, -7), true
	case WithinMonth:
		return now.AddDate(0, -1, 0), true
	case WithinYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func matchesText(issue models.Issue, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(issue.Title), q) ||
		strings.Contains(strings.ToLower(issue.Description), q) ||
		strings.Contains(strings.ToLower(issue.Address), q) ||
		strings.Contains(strings.ToLower(issue.ReporterName()), q)
}

func searchText(issue models.Issue) string {
	return strings.ToLower(strings.Join([]string{
		issue.Title, issue.Description, issue.Address, issue.ReporterName(),
	}, " "))
}

// Tokenize splits a lower-cased query on whitespace, trims surrounding punctuation
// and drops tokens shorter than three characters.
func Tokenize(q string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(q)) {
		tok := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(tok)) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// matchesAnyToken is substring containment in both directions: "pothole" finds
// "potholes" and the token "potholes" finds the word "pothole".
func matchesAnyToken(text string, tokens []string) bool {
	words := Tokenize(text)
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
		for _, w := range words {
			if len([]rune(w)) >= minStemLen && strings.Contains(tok, w) {
				return true
			}
		}
	}
	return false
}
