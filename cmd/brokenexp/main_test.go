package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"brokenexp/internal/models"
)

func TestParseDay(t *testing.T) {
	got, err := parseDay("")
	if err != nil || got != nil {
		t.Fatalf("empty day = %v, %v; want nil, nil", got, err)
	}
	got, err = parseDay("2024-06-30")
	if err != nil {
		t.Fatalf("parseDay: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.June || got.Day() != 30 {
		t.Errorf("parseDay = %v", got)
	}
	if _, err := parseDay("30/06/2024"); err == nil {
		t.Error("expected an error for a non ISO date")
	}
}

func TestPrintIssues(t *testing.T) {
	var buf bytes.Buffer
	printIssues(&buf, []models.Issue{{
		ID:          "42",
		Title:       "Pothole on Hope Road",
		Category:    models.CategoryRoadMaintenance,
		Priority:    models.PriorityHigh,
		Status:      models.StatusPending,
		UpvoteCount: 3,
		Upvoted:     true,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	}})
	out := buf.String()
	for _, want := range []string{"42", "Pothole on Hope Road", "Road Maintenance", "▲", "3 upvotes", "anonymous"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := rootCommand()
	for _, name := range []string{"login", "issues", "upvote", "bookmark", "delete", "stats"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
