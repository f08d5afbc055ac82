package feed

import (
	"context"
	"errors"
	"fmt"

	"brokenexp/internal/apperr"
	"brokenexp/internal/models"

	"github.com/charmbracelet/log/v2"
)

// ErrInFlight is returned when the same membership flag already has a toggle
// waiting on the backend.
var ErrInFlight = errors.New("toggle already in flight")

var errUnknownIssue = fmt.Errorf("issue not in feed: %w", apperr.ErrNotFound)

// Backend is the authoritative side of a toggle.
type Backend interface {
	// Toggle inserts the membership row if absent, deletes it if present and
	// reports the new state.
	Toggle(ctx context.Context, kind Kind, issueID, userID string) (bool, error)
	FetchIssue(ctx context.Context, issueID string) (models.Issue, error)
}

// Notifier shows a transient message to the user (toast, status line).
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (fn NotifierFunc) Notify(message string) { fn(message) }

// Reconciler applies toggles to a Feed optimistically and reconciles them
// against the Backend.
type Reconciler struct {
	feed     *Feed
	backend  Backend
	notifier Notifier
	logger   *log.Logger
}

type Option func(*Reconciler)

func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

func NewReconciler(f *Feed, b Backend, opts ...Option) *Reconciler {
	r := &Reconciler{
		feed:     f,
		backend:  b,
		notifier: NotifierFunc(func(string) {}),
		logger:   log.Default().WithPrefix("feed"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Toggle flips the membership flag of userID on issueID and returns the new
// state. The flag and counter change before the backend is called.
//
// On backend failure both are restored and the error is returned. When the
// backend disagrees with the optimistic value they are restored, the issue is
// reloaded and the server's state is returned together with ErrConflict.
func (r *Reconciler) Toggle(ctx context.Context, kind Kind, issueID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.ErrUnauthenticated
	}
	if !kind.Valid() {
		return false, apperr.Invalid("kind", fmt.Sprintf("unknown toggle %q", kind))
	}

	k := key{kind: kind, issueID: issueID, userID: userID}
	was, delta, err := r.feed.begin(k)
	if err != nil {
		return false, err
	}

	active, err := r.backend.Toggle(ctx, kind, issueID, userID)
	if err != nil {
		r.feed.revert(k, was, delta)
		r.logger.Warn("toggle failed, reverted", "kind", kind, "issue", issueID, "err", err)
		r.notifier.Notify(fmt.Sprintf("Could not %s, please try again.", verb(kind, !was)))
		return was, fmt.Errorf("%s %s: %w", kind, issueID, err)
	}

	if active == was {
		r.feed.revert(k, was, delta)
		r.logger.Info("toggle mismatch, reloading", "kind", kind, "issue", issueID, "server", active)
		r.reload(ctx, issueID)
		return active, fmt.Errorf("%s %s: %w", kind, issueID, apperr.ErrConflict)
	}

	r.feed.settle(k)
	return active, nil
}

func (r *Reconciler) reload(ctx context.Context, issueID string) {
	fresh, err := r.backend.FetchIssue(ctx, issueID)
	if err != nil {
		r.logger.Error("reload issue", "issue", issueID, "err", err)
		r.notifier.Notify("This issue changed elsewhere. Pull to refresh.")
		return
	}
	r.feed.Replace(fresh)
}

func verb(kind Kind, active bool) string {
	switch {
	case kind == Upvote && active:
		return "upvote"
	case kind == Upvote:
		return "remove upvote"
	case active:
		return "bookmark"
	default:
		return "remove bookmark"
	}
}
