package main

import (
	"errors"
	"fmt"

	"brokenexp/internal/apperr"
	"brokenexp/internal/feed"

	"github.com/charmbracelet/log/v2"
	"github.com/spf13/cobra"
)

// toggleCommand runs one toggle through the reconciler so the printed state
// is the server's answer, even when it disagrees with the local guess.
func toggleCommand(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " ISSUE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := sessionFrom(ctx)
			if err := requireUser(s); err != nil {
				return err
			}
			issues, err := s.ListIssues(ctx)
			if err != nil {
				return err
			}
			f := feed.New()
			f.Load(issues, s.UserID())

			r := feed.NewReconciler(f, s,
				feed.WithLogger(log.Default().WithPrefix(kind)),
				feed.WithNotifier(feed.NotifierFunc(func(msg string) { cmd.PrintErrln(msg) })),
			)
			k := feed.Kind(kind)
			active, err := r.Toggle(ctx, k, args[0], s.UserID())
			if err != nil && !errors.Is(err, apperr.ErrConflict) {
				return err
			}

			issue, _ := f.Issue(args[0])
			count := issue.UpvoteCount
			if k == feed.Bookmark {
				count = issue.BookmarkCount
			}
			verb := map[bool]string{true: "on", false: "off"}[active]
			if errors.Is(err, apperr.ErrConflict) {
				fmt.Fprintf(cmd.ErrOrStderr(), "state changed on the server; showing the latest\n")
			}
			cmd.Printf("%s %s: %s (%d)\n", kind, issue.Title, verb, count)
			return nil
		},
	}
}
