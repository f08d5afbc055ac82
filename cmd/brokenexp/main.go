// Command brokenexp is the terminal surface for Broken Experience.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"brokenexp/internal/client"

	"github.com/charmbracelet/log/v2"
	"github.com/spf13/cobra"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *client.Session {
	s, _ := ctx.Value(sessionKey{}).(*client.Session)
	return s
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		baseURL  string
		token    string
		email    string
		password string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:           "brokenexp",
		Short:         "Report and follow community issues from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			s, err := client.Open(baseURL, client.WithToken(token), client.WithCacheTTL(time.Minute))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case email != "" && password != "":
				if err := s.SignIn(ctx, email, password); err != nil {
					return err
				}
			case token != "":
				if err := s.Resume(ctx); err != nil {
					return err
				}
			}
			log.Debug("session ready", "url", baseURL, "user", s.UserID())
			cmd.SetContext(context.WithValue(ctx, sessionKey{}, s))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if s := sessionFrom(cmd.Context()); s != nil {
				return s.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&baseURL, "url", envOr("BROKENEXP_URL", "http://localhost:8080"), "Server base URL")
	flags.StringVar(&token, "token", os.Getenv("BROKENEXP_TOKEN"), "API token (see the login command)")
	flags.StringVar(&email, "email", os.Getenv("BROKENEXP_EMAIL"), "Sign in with this email")
	flags.StringVar(&password, "password", os.Getenv("BROKENEXP_PASSWORD"), "Password for --email")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(
		loginCommand(),
		issuesCommand(),
		toggleCommand("upvote", "Upvote an issue, or take the upvote back"),
		toggleCommand("bookmark", "Save an issue, or remove it from saved"),
		deleteCommand(),
		statsCommand(),
	)
	return cmd
}

func loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sessionFrom(cmd.Context())
			if s.UserID() == "" {
				return errors.New("pass --email and --password (or BROKENEXP_EMAIL / BROKENEXP_PASSWORD)")
			}
			p := s.Profile()
			cmd.Printf("Signed in as %s (%d reputation)\n", p.Name, p.Reputation)
			cmd.Printf("export BROKENEXP_TOKEN=%s\n", s.Token())
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireUser fails early for commands that act as the signed-in user.
func requireUser(s *client.Session) error {
	if s.UserID() == "" {
		return fmt.Errorf("sign in first: run with --email/--password or --token")
	}
	return nil
}
