package models

import "testing"

func TestEnumValid(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"infrastructure", true},
		{"road_maintenance", true},
		{"Road", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Category(tt.name).Valid(); got != tt.valid {
				t.Errorf("Category(%q).Valid() = %v, want %v", tt.name, got, tt.valid)
			}
		})
	}

	if !PriorityCritical.Valid() || Priority("urgent").Valid() {
		t.Error("priority validation mismatch")
	}
	if !StatusInProgress.Valid() || Status("In Progress").Valid() {
		t.Error("status validation mismatch")
	}
}

func TestStatusOpen(t *testing.T) {
	if !StatusPending.Open() || !StatusInProgress.Open() {
		t.Error("pending and in_progress are open")
	}
	if StatusResolved.Open() || StatusClosed.Open() {
		t.Error("resolved and closed are not open")
	}
}

func TestIssueOwnedBy(t *testing.T) {
	owner := "u1"
	issue := Issue{ReporterID: &owner}
	if !issue.OwnedBy("u1") {
		t.Error("reporter should own the issue")
	}
	if issue.OwnedBy("u2") || issue.OwnedBy("") {
		t.Error("other users should not own the issue")
	}

	anonymous := Issue{}
	if anonymous.OwnedBy("u1") {
		t.Error("anonymous issues have no owner")
	}
}

func TestCommentCanReply(t *testing.T) {
	c := Comment{Depth: MaxCommentDepth - 1}
	if !c.CanReply() {
		t.Error("comment below the cap should accept replies")
	}
	c.Depth = MaxCommentDepth
	if c.CanReply() {
		t.Error("comment at the cap should not accept replies")
	}
}

func TestResolutionRate(t *testing.T) {
	s := EmptyStats()
	if s.ResolutionRate() != 0 {
		t.Fatal("empty stats should have a zero rate")
	}
	if len(s.ByStatus) != len(Statuses) || len(s.ByCategory) != len(Categories) {
		t.Fatalf("EmptyStats() misses keys: %+v", s)
	}
	s.TotalIssues = 8
	s.ByStatus[StatusResolved] = 3
	s.ByStatus[StatusClosed] = 1
	if got := s.ResolutionRate(); got != 50 {
		t.Fatalf("ResolutionRate() = %d, want 50", got)
	}
}
