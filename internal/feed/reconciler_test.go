package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"brokenexp/internal/apperr"
	"brokenexp/internal/models"
	"github.com/matryer/is"
)

type fakeBackend struct {
	mu      sync.Mutex
	rows    map[key]bool
	issues  map[string]models.Issue
	err     error
	flip    bool          // answer the opposite of the real new state
	block   chan struct{} // when set, Toggle waits on it
	entered chan struct{}
	calls   int
	fetches int
}

func newFakeBackend(issues ...models.Issue) *fakeBackend {
	b := &fakeBackend{rows: map[key]bool{}, issues: map[string]models.Issue{}}
	for _, i := range issues {
		b.issues[i.ID] = i
	}
	return b
}

func (b *fakeBackend) Toggle(ctx context.Context, kind Kind, issueID, userID string) (bool, error) {
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return false, b.err
	}
	k := key{kind, issueID, userID}
	b.rows[k] = !b.rows[k]
	if b.flip {
		return !b.rows[k], nil
	}
	return b.rows[k], nil
}

func (b *fakeBackend) FetchIssue(ctx context.Context, issueID string) (models.Issue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	i, ok := b.issues[issueID]
	if !ok {
		return models.Issue{}, apperr.ErrNotFound
	}
	return i, nil
}

type notes []string

func (n *notes) Notify(m string) { *n = append(*n, m) }

func setup(backend *fakeBackend, issues ...models.Issue) (*Feed, *Reconciler, *notes) {
	f := New()
	f.Load(issues, "u1")
	n := &notes{}
	return f, NewReconciler(f, backend, WithNotifier(n)), n
}

func TestToggleUpvoteScenario(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	issue := models.Issue{ID: "42", UpvoteCount: 3}
	_, r, _ := setup(newFakeBackend(issue), issue)
	f := r.feed

	active, err := r.Toggle(ctx, Upvote, "42", "u1")
	is.NoErr(err)
	is.True(active)
	got, _ := f.Issue("42")
	is.Equal(got.UpvoteCount, int64(4))
	is.True(got.Upvoted)
	is.True(f.Active(Upvote, "42", "u1"))
	is.Equal(f.Phase(Upvote, "42", "u1"), Settled)

	active, err = r.Toggle(ctx, Upvote, "42", "u1")
	is.NoErr(err)
	is.True(!active)
	got, _ = f.Issue("42")
	is.Equal(got.UpvoteCount, int64(3))
	is.True(!got.Upvoted)
	is.True(!f.Active(Upvote, "42", "u1"))
}

func TestToggleBookmarkTouchesOnlyItsCounter(t *testing.T) {
	is := is.New(t)
	a := models.Issue{ID: "a", UpvoteCount: 7, BookmarkCount: 1}
	b := models.Issue{ID: "b", UpvoteCount: 2, BookmarkCount: 5}
	f, r, _ := setup(newFakeBackend(a, b), a, b)

	active, err := r.Toggle(context.Background(), Bookmark, "a", "u1")
	is.NoErr(err)
	is.True(active)

	gotA, _ := f.Issue("a")
	gotB, _ := f.Issue("b")
	is.Equal(gotA.BookmarkCount, int64(2))
	is.Equal(gotA.UpvoteCount, int64(7))
	is.True(gotA.Bookmarked)
	is.Equal(gotB, b)
}

func TestToggleUnauthenticated(t *testing.T) {
	is := is.New(t)
	issue := models.Issue{ID: "42", UpvoteCount: 3}
	backend := newFakeBackend(issue)
	f, r, _ := setup(backend, issue)

	_, err := r.Toggle(context.Background(), Upvote, "42", "")
	is.True(errors.Is(err, apperr.ErrUnauthenticated))
	is.Equal(backend.calls, 0)
	got, _ := f.Issue("42")
	is.Equal(got, issue)
	is.Equal(f.Phase(Upvote, "42", ""), Idle)
}

func TestToggleFailureReverts(t *testing.T) {
	is := is.New(t)
	issue := models.Issue{ID: "42", UpvoteCount: 3, Upvoted: true}
	backend := newFakeBackend(issue)
	backend.err = apperr.ErrBackend
	f, r, n := setup(backend, issue)

	active, err := r.Toggle(context.Background(), Upvote, "42", "u1")
	is.True(errors.Is(err, apperr.ErrBackend))
	is.True(active) // unchanged

	got, _ := f.Issue("42")
	is.Equal(got, issue)
	is.True(f.Active(Upvote, "42", "u1"))
	is.Equal(len(*n), 1)
	is.Equal(f.Phase(Upvote, "42", "u1"), Settled)
}

func TestToggleMismatchReloads(t *testing.T) {
	is := is.New(t)
	local := models.Issue{ID: "42", UpvoteCount: 3}
	server := models.Issue{ID: "42", UpvoteCount: 9, Upvoted: true}
	backend := newFakeBackend(server)
	backend.flip = true
	f, r, _ := setup(backend, local)

	active, err := r.Toggle(context.Background(), Upvote, "42", "u1")
	is.True(errors.Is(err, apperr.ErrConflict))
	is.True(!active) // the server said "now inactive"
	is.Equal(backend.fetches, 1)

	got, _ := f.Issue("42")
	is.Equal(got.UpvoteCount, int64(9))
	is.True(f.Active(Upvote, "42", "u1"))
}

func TestToggleMismatchReloadFailureKeepsRevert(t *testing.T) {
	is := is.New(t)
	local := models.Issue{ID: "42", UpvoteCount: 3}
	backend := newFakeBackend() // FetchIssue fails
	backend.flip = true
	f, r, n := setup(backend, local)

	_, err := r.Toggle(context.Background(), Upvote, "42", "u1")
	is.True(errors.Is(err, apperr.ErrConflict))
	got, _ := f.Issue("42")
	is.Equal(got, local)
	is.Equal(len(*n), 1)
}

func TestToggleCounterNeverNegative(t *testing.T) {
	is := is.New(t)
	// stale record: flag set but counter already zero
	issue := models.Issue{ID: "1", UpvoteCount: 0, Upvoted: true}
	backend := newFakeBackend(issue)
	backend.rows[key{Upvote, "1", "u1"}] = true
	f, r, _ := setup(backend, issue)

	active, err := r.Toggle(context.Background(), Upvote, "1", "u1")
	is.NoErr(err)
	is.True(!active)
	got, _ := f.Issue("1")
	is.Equal(got.UpvoteCount, int64(0))

	// a failing toggle back must not overshoot either
	backend.err = apperr.ErrBackend
	_, err = r.Toggle(context.Background(), Upvote, "1", "u1")
	is.True(err != nil)
	got, _ = f.Issue("1")
	is.Equal(got.UpvoteCount, int64(0))
}

func TestToggleUnknownIssue(t *testing.T) {
	is := is.New(t)
	backend := newFakeBackend()
	_, r, _ := setup(backend)

	_, err := r.Toggle(context.Background(), Upvote, "nope", "u1")
	is.True(errors.Is(err, apperr.ErrNotFound))
	is.Equal(backend.calls, 0)
}

func TestToggleInFlightRejected(t *testing.T) {
	is := is.New(t)
	issue := models.Issue{ID: "42", UpvoteCount: 3}
	backend := newFakeBackend(issue)
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{}, 1)
	f, r, _ := setup(backend, issue)

	done := make(chan error, 1)
	go func() {
		_, err := r.Toggle(context.Background(), Upvote, "42", "u1")
		done <- err
	}()
	<-backend.entered
	is.Equal(f.Phase(Upvote, "42", "u1"), Pending)

	_, err := r.Toggle(context.Background(), Upvote, "42", "u1")
	is.True(errors.Is(err, ErrInFlight))
	got, _ := f.Issue("42")
	is.Equal(got.UpvoteCount, int64(4)) // only the first toggle applied

	close(backend.block)
	is.NoErr(<-done)
	is.Equal(backend.calls, 1)
	is.Equal(f.Phase(Upvote, "42", "u1"), Settled)
}

func TestRemoveDropsIssue(t *testing.T) {
	is := is.New(t)
	f := New()
	f.Load([]models.Issue{{ID: "a"}, {ID: "b", Upvoted: true}, {ID: "c"}}, "u1")

	f.Remove("b")
	is.Equal(len(f.Issues()), 2)
	_, ok := f.Issue("b")
	is.True(!ok)
	c, ok := f.Issue("c")
	is.True(ok)
	is.Equal(c.ID, "c")
	is.True(!f.Active(Upvote, "b", "u1"))
}
