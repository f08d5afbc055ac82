package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"brokenexp/internal/apperr"
	"brokenexp/internal/gamification"
	"brokenexp/internal/models"
	"brokenexp/internal/search"
	"brokenexp/internal/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func issuesCommand() *cobra.Command {
	var (
		query    string
		filters  search.FilterSet
		status   string
		category string
		priority string
		within   string
		from     string
		to       string
	)

	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"ls", "search"},
		Short:   "List and search issues",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters.Status = models.Status(status)
			filters.Category = models.Category(category)
			filters.Priority = models.Priority(priority)
			filters.Within = search.Within(within)
			if !filters.Within.Valid() {
				return fmt.Errorf("invalid --within %q (today, week, month, year)", within)
			}
			var err error
			if filters.DateFrom, err = parseDay(from); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			if filters.DateTo, err = parseDay(to); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			s := sessionFrom(cmd.Context())
			issues, err := s.ListIssues(cmd.Context())
			if err != nil {
				return err
			}

			res := search.New().Filter(issues, query, filters)
			out := cmd.OutOrStdout()
			switch {
			case len(res.Exact) > 0:
				printIssues(out, res.Exact)
			case len(res.Similar) > 0:
				fmt.Fprintf(out, "No exact matches. Similar results:\n")
				printIssues(out, res.Similar)
			default:
				cmd.Println("No issues found")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "Free-text search")
	f.StringVar(&status, "status", "", "pending, in_progress, resolved, closed")
	f.StringVar(&category, "category", "", categoryList)
	f.StringVar(&priority, "priority", "", "low, medium, high, critical")
	f.StringVar(&filters.Author, "author", "", "Reporter name contains")
	f.StringVar(&from, "from", "", "Reported on or after (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "Reported on or before (YYYY-MM-DD)")
	f.StringVar(&within, "within", "", "today, week, month, year")
	return cmd
}

func parseDay(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printIssues(w io.Writer, issues []models.Issue) {
	for _, it := range issues {
		marks := ""
		if it.Upvoted {
			marks += " ▲"
		}
		if it.Bookmarked {
			marks += " ★"
		}
		reporter := it.ReporterName()
		if reporter == "" {
			reporter = "anonymous"
		}
		fmt.Fprintf(w, "%s  %s [%s/%s/%s]%s\n", it.ID, it.Title,
			utils.Label(string(it.Category)), it.Priority, it.Status, marks)
		fmt.Fprintf(w, "    %d upvotes · %d comments · by %s · %s\n",
			it.UpvoteCount, it.CommentCount, reporter, humanize.Time(it.CreatedAt))
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ISSUE_ID",
		Short: "Delete an issue you reported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := sessionFrom(ctx)
			if err := requireUser(s); err != nil {
				return err
			}
			issue, err := s.FetchIssue(ctx, args[0])
			if err != nil {
				return err
			}
			err = s.DeleteIssue(ctx, issue)
			if errors.Is(err, apperr.ErrForbidden) {
				return fmt.Errorf("only the reporter can delete %q", issue.Title)
			}
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", issue.ID)
			return nil
		},
	}
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show community statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sessionFrom(cmd.Context())
			stats, degraded, err := s.Stats(cmd.Context())
			if err != nil {
				cmd.PrintErrf("stats unavailable: %v\n", err)
			} else if degraded {
				cmd.PrintErrln("some numbers are unavailable right now")
			}

			cmd.Printf("Issues:     %d (%d%% resolved)\n", stats.TotalIssues, stats.ResolutionRate())
			cmd.Printf("This week:  %d\n", stats.LastWeek)
			cmd.Printf("Reporters:  %d\n", stats.Reporters)
			cmd.Printf("Upvotes:    %d\n", stats.Upvotes)
			cmd.Printf("Comments:   %d\n", stats.Comments)
			for _, st := range models.Statuses {
				cmd.Printf("  %-12s %d\n", utils.Label(string(st)), stats.ByStatus[st])
			}
			if uid := s.UserID(); uid != "" {
				p := gamification.LevelFor(s.Profile().Reputation)
				cmd.Printf("You: %s, %d points", p.Level.Name, p.Points)
				if p.Next != nil {
					cmd.Printf(" (%d to %s)", p.ToNext, p.Next.Name)
				}
				cmd.Println()
			}
			if len(stats.Trending) > 0 {
				cmd.Println("Trending:")
				printIssues(cmd.OutOrStdout(), stats.Trending)
			}
			return nil
		},
	}
}

// categoryList is the --category help text.
var categoryList = strings.Join(func() []string {
	out := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = string(c)
	}
	return out
}(), ", ")
