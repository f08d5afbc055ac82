// Package feed holds the client-side issue list every surface renders and the
// optimistic membership toggle that mutates it.
package feed

import (
	"sync"

	"brokenexp/internal/models"
)

// Kind is a toggleable membership between a user and an issue.
type Kind string

const (
	Upvote   Kind = "upvote"
	Bookmark Kind = "bookmark"
)

func (k Kind) Valid() bool {
	return k == Upvote || k == Bookmark
}

// Phase is the in-flight state of one membership flag.
type Phase int

const (
	Idle Phase = iota
	Pending
	Settled
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

type key struct {
	kind    Kind
	issueID string
	userID  string
}

// Feed is the in-memory, newest-first issue list of one client. All access goes
// through its methods; the zero value is not usable, use New.
type Feed struct {
	mu     sync.Mutex
	viewer string
	issues []models.Issue
	index  map[string]int
	flags  map[key]bool
	phases map[key]Phase
}

func New() *Feed {
	return &Feed{
		index:  make(map[string]int),
		flags:  make(map[key]bool),
		phases: make(map[key]Phase),
	}
}

// Load replaces the list with a fresh fetch. The per-viewer Upvoted/Bookmarked
// fields of the records seed the flags of viewer. Pending toggles keep their phase.
func (f *Feed) Load(issues []models.Issue, viewer string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.viewer = viewer
	f.issues = make([]models.Issue, len(issues))
	copy(f.issues, issues)
	f.index = make(map[string]int, len(issues))
	f.flags = make(map[key]bool)
	for i, issue := range f.issues {
		f.index[issue.ID] = i
		if viewer != "" {
			f.flags[key{Upvote, issue.ID, viewer}] = issue.Upvoted
			f.flags[key{Bookmark, issue.ID, viewer}] = issue.Bookmarked
		}
	}
}

// Issues returns a copy of the list in feed order.
func (f *Feed) Issues() []models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Issue, len(f.issues))
	copy(out, f.issues)
	return out
}

func (f *Feed) Issue(id string) (models.Issue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[id]
	if !ok {
		return models.Issue{}, false
	}
	return f.issues[i], true
}

// Active reports the local membership flag.
func (f *Feed) Active(kind Kind, issueID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[key{kind, issueID, userID}]
}

func (f *Feed) Phase(kind Kind, issueID, userID string) Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phases[key{kind, issueID, userID}]
}

// Remove drops an issue, e.g. after its owner deleted it.
func (f *Feed) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[id]
	if !ok {
		return
	}
	f.issues = append(f.issues[:i], f.issues[i+1:]...)
	f.index = make(map[string]int, len(f.issues))
	for j, issue := range f.issues {
		f.index[issue.ID] = j
	}
	for k := range f.flags {
		if k.issueID == id {
			delete(f.flags, k)
		}
	}
}

// Replace swaps in an authoritative record for an issue already in the feed.
func (f *Feed) Replace(issue models.Issue) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[issue.ID]
	if !ok {
		return false
	}
	f.issues[i] = issue
	if f.viewer != "" {
		f.flags[key{Upvote, issue.ID, f.viewer}] = issue.Upvoted
		f.flags[key{Bookmark, issue.ID, f.viewer}] = issue.Bookmarked
	}
	return true
}

// begin flips the flag optimistically and marks it pending. It returns the flag
// before the flip and the counter delta actually applied.
func (f *Feed) begin(k key) (was bool, delta int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.index[k.issueID]
	if !ok {
		return false, 0, errUnknownIssue
	}
	if f.phases[k] == Pending {
		return false, 0, ErrInFlight
	}

	was = f.flags[k]
	f.phases[k] = Pending
	f.setFlag(k, i, !was)

	delta = 1
	if was {
		delta = -1
	}
	delta = f.addCount(k.kind, i, delta)
	return was, delta, nil
}

// revert undoes begin and leaves the flag settled.
func (f *Feed) revert(k key, was bool, delta int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.phases[k] = Settled
	i, ok := f.index[k.issueID]
	if !ok {
		delete(f.flags, k)
		return
	}
	f.setFlag(k, i, was)
	f.addCount(k.kind, i, -delta)
}

func (f *Feed) settle(k key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases[k] = Settled
}

func (f *Feed) setFlag(k key, i int, v bool) {
	f.flags[k] = v
	if k.userID != f.viewer {
		return
	}
	switch k.kind {
	case Upvote:
		f.issues[i].Upvoted = v
	case Bookmark:
		f.issues[i].Bookmarked = v
	}
}

// addCount moves the kind's counter by delta without going below zero and
// returns the change that was applied.
func (f *Feed) addCount(kind Kind, i int, delta int64) int64 {
	c := &f.issues[i].UpvoteCount
	if kind == Bookmark {
		c = &f.issues[i].BookmarkCount
	}
	next := *c + delta
	if next < 0 {
		next = 0
	}
	applied := next - *c
	*c = next
	return applied
}
