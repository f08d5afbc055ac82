package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"brokenexp/internal/apperr"
	"brokenexp/internal/models"

	"gorm.io/gorm"
)

func TestWrapMapsErrors(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{gorm.ErrRecordNotFound, apperr.ErrNotFound},
		{gorm.ErrDuplicatedKey, apperr.ErrConflict},
		{apperr.ErrForbidden, apperr.ErrForbidden},
		{apperr.Invalid("text", "empty"), apperr.ErrValidation},
		{errors.New("connection reset"), apperr.ErrBackend},
	}
	for _, tt := range tests {
		got := wrap("op", tt.in)
		if !errors.Is(got, tt.want) {
			t.Errorf("wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if !strings.HasPrefix(got.Error(), "op: ") {
			t.Errorf("wrap(%v) lost the operation: %v", tt.in, got)
		}
	}
	if wrap("op", nil) != nil {
		t.Error("wrap(nil) should be nil")
	}
}

func TestValidateIssue(t *testing.T) {
	valid := models.Issue{
		Title:       "Pothole on Oak St",
		Description: "Deep enough to lose a wheel",
		Category:    models.CategoryRoadMaintenance,
		Latitude:    18.0,
		Longitude:   -76.8,
	}
	if err := validateIssue(&valid); err != nil {
		t.Fatalf("valid issue rejected: %v", err)
	}

	tests := map[string]func(*models.Issue){
		"title":       func(i *models.Issue) { i.Title = "  " },
		"description": func(i *models.Issue) { i.Description = "" },
		"category":    func(i *models.Issue) { i.Category = "weather" },
		"priority":    func(i *models.Issue) { i.Priority = "urgent" },
		"latitude":    func(i *models.Issue) { i.Latitude = 91 },
		"longitude":   func(i *models.Issue) { i.Longitude = -181 },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			issue := valid
			mutate(&issue)
			err := validateIssue(&issue)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || verr.Field != field {
				t.Fatalf("validateIssue() = %v, want error on %s", err, field)
			}
		})
	}
}

func TestReplyDepth(t *testing.T) {
	depth, err := replyDepth(models.Comment{Depth: 0})
	if err != nil || depth != 1 {
		t.Fatalf("reply to top level = %d, %v", depth, err)
	}
	depth, err = replyDepth(models.Comment{Depth: models.MaxCommentDepth - 1})
	if err != nil || depth != models.MaxCommentDepth {
		t.Fatalf("reply to depth %d = %d, %v", models.MaxCommentDepth-1, depth, err)
	}
	if _, err := replyDepth(models.Comment{Depth: models.MaxCommentDepth}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("reply past max depth = %v, want validation error", err)
	}
}

func TestCleanCommentText(t *testing.T) {
	got, err := cleanCommentText("  thanks for reporting  ")
	if err != nil || got != "thanks for reporting" {
		t.Fatalf("cleanCommentText() = %q, %v", got, err)
	}
	if _, err := cleanCommentText(" \n\t"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank comment accepted: %v", err)
	}
	if _, err := cleanCommentText(strings.Repeat("x", maxCommentLen+1)); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("long comment accepted: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ name, email, want string }{
		{"Marcia", "m@example.com", "Marcia"},
		{"", "desmond@example.com", "desmond"},
		{" ", "@example.com", "Neighbour"},
	}
	for _, tt := range tests {
		if got := displayName(tt.name, tt.email); got != tt.want {
			t.Errorf("displayName(%q, %q) = %q, want %q", tt.name, tt.email, got, tt.want)
		}
	}
}

func TestTrending(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	issues := []models.Issue{
		{ID: "quiet", CreatedAt: now.Add(-time.Hour)},
		{ID: "busy", CreatedAt: now.Add(-2 * time.Hour), UpvoteCount: 40, CommentCount: 10},
		{ID: "old", CreatedAt: now.AddDate(0, 0, -20), UpvoteCount: 40, CommentCount: 10},
	}

	got := Trending(issues, now, 2)
	if len(got) != 2 || got[0].ID != "busy" {
		t.Fatalf("Trending() = %v", got)
	}
	if issues[0].ID != "quiet" {
		t.Fatal("Trending() reordered its input")
	}
}
