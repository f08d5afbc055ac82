package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"brokenexp/internal/apperr"
	"brokenexp/internal/feed"
	"brokenexp/internal/models"
)

// NewIssue is the body of a report.
type NewIssue struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Anonymous   bool    `json:"anonymous,omitempty"`
}

// ListIssues returns the newest-first feed, served from cache while fresh.
func (s *Session) ListIssues(ctx context.Context) ([]models.Issue, error) {
	if issues, ok := s.cache.Get(issuesKey); ok {
		return issues, nil
	}
	var issues []models.Issue
	if err := s.do(ctx, http.MethodGet, "/api/issues", nil, &issues); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	if s.cacheTTL > 0 {
		s.cache.Set(issuesKey, issues, s.cacheTTL)
	}
	return issues, nil
}

// FetchIssue always goes to the server.
func (s *Session) FetchIssue(ctx context.Context, id string) (models.Issue, error) {
	var issue models.Issue
	if err := s.do(ctx, http.MethodGet, "/api/issues/"+url.PathEscape(id), nil, &issue); err != nil {
		return models.Issue{}, fmt.Errorf("fetch issue %s: %w", id, err)
	}
	return issue, nil
}

type toggleResponse struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// Toggle flips the caller's upvote or bookmark on the server and returns the new state.
// The server acts for the token holder; userID must be the signed-in user.
func (s *Session) Toggle(ctx context.Context, kind feed.Kind, issueID, userID string) (bool, error) {
	if userID == "" || userID != s.UserID() {
		return false, apperr.ErrUnauthenticated
	}
	if !kind.Valid() {
		return false, apperr.Invalid("kind", "must be upvote or bookmark")
	}
	var resp toggleResponse
	path := "/api/issues/" + url.PathEscape(issueID) + "/" + string(kind)
	if err := s.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, fmt.Errorf("toggle %s: %w", kind, err)
	}
	s.Invalidate()
	return resp.Active, nil
}

func (s *Session) CreateIssue(ctx context.Context, in NewIssue) (models.Issue, error) {
	if s.UserID() == "" {
		return models.Issue{}, apperr.ErrUnauthenticated
	}
	var issue models.Issue
	if err := s.do(ctx, http.MethodPost, "/api/issues", in, &issue); err != nil {
		return models.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	s.Invalidate()
	return issue, nil
}

// UpdateStatus changes an issue's status. Only the reporter may do this.
func (s *Session) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Issue, error) {
	if !status.Valid() {
		return models.Issue{}, apperr.Invalid("status", "unknown status")
	}
	var issue models.Issue
	body := map[string]string{"status": string(status)}
	if err := s.do(ctx, http.MethodPatch, "/api/issues/"+url.PathEscape(id), body, &issue); err != nil {
		return models.Issue{}, fmt.Errorf("update issue %s: %w", id, err)
	}
	s.Invalidate()
	return issue, nil
}

// DeleteIssue refuses locally, without a request, when the session user did not report the issue.
func (s *Session) DeleteIssue(ctx context.Context, issue models.Issue) error {
	userID := s.UserID()
	if userID == "" {
		return apperr.ErrUnauthenticated
	}
	if !issue.OwnedBy(userID) {
		return fmt.Errorf("delete issue %s: %w", issue.ID, apperr.ErrForbidden)
	}
	if err := s.do(ctx, http.MethodDelete, "/api/issues/"+url.PathEscape(issue.ID), nil, nil); err != nil {
		return fmt.Errorf("delete issue %s: %w", issue.ID, err)
	}
	s.Invalidate()
	return nil
}

func (s *Session) Comments(ctx context.Context, issueID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.do(ctx, http.MethodGet, "/api/issues/"+url.PathEscape(issueID)+"/comments", nil, &comments); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment posts a comment; parentID may be empty for a top-level comment.
func (s *Session) AddComment(ctx context.Context, issueID, parentID, text string) (models.Comment, error) {
	body := map[string]any{"text": text}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	var comment models.Comment
	if err := s.do(ctx, http.MethodPost, "/api/issues/"+url.PathEscape(issueID)+"/comments", body, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	s.Invalidate()
	return comment, nil
}

type statsResponse struct {
	Stats          models.Stats `json:"stats"`
	ResolutionRate int          `json:"resolution_rate"`
	Degraded       bool         `json:"degraded"`
}

// Stats returns the community aggregate. Any failure yields the zero-valued
// aggregate with degraded set, alongside the error.
func (s *Session) Stats(ctx context.Context) (stats models.Stats, degraded bool, err error) {
	var resp statsResponse
	if err := s.do(ctx, http.MethodGet, "/api/stats", nil, &resp); err != nil {
		return models.EmptyStats(), true, fmt.Errorf("stats: %w", err)
	}
	return resp.Stats, resp.Degraded, nil
}
