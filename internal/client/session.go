// Package client talks to the Broken Experience JSON API on behalf of one
// signed-in user. A Session is the collaborator the feed reconciler toggles
// against.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"brokenexp/internal/apperr"
	"brokenexp/internal/feed"
	"brokenexp/internal/models"
	"brokenexp/internal/utils"
)

const issuesKey = "issues:all"

// Session holds the API base URL, the bearer token and the signed-in profile.
// It is safe for concurrent use.
type Session struct {
	base     *url.URL
	client   *http.Client
	cache    *utils.TTLCache[[]models.Issue]
	cacheTTL time.Duration

	mu      sync.RWMutex
	token   string
	user    models.User
	profile models.Profile
	closed  bool
}

type Option func(*Session)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithCacheTTL sets how long the issue list is served from memory. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Session) { s.cacheTTL = d }
}

// WithToken resumes a session from a previously issued token. Call Resume to
// load the user behind it.
func WithToken(token string) Option {
	return func(s *Session) { s.token = token }
}

// Open prepares a session against baseURL. It does not sign in.
func Open(baseURL string, opts ...Option) (*Session, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	cache, err := utils.NewTTLCache[[]models.Issue](16)
	if err != nil {
		return nil, err
	}
	s := &Session{
		base:     u,
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    cache,
		cacheTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close forgets the token and drops cached data. The session cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = models.User{}
	s.profile = models.Profile{}
	s.closed = true
	s.cache.Purge()
	return nil
}

type authResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.User    `json:"user"`
	Profile   models.Profile `json:"profile"`
}

// SignIn exchanges credentials for a token.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.profile = resp.Profile
	s.mu.Unlock()
	s.cache.Purge()
	return nil
}

// Resume loads the user behind the token given with WithToken.
func (s *Session) Resume(ctx context.Context) error {
	if s.Token() == "" {
		return apperr.ErrUnauthenticated
	}
	var resp struct {
		User    models.User    `json:"user"`
		Profile models.Profile `json:"profile"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	s.mu.Lock()
	s.user = resp.User
	s.profile = resp.Profile
	s.mu.Unlock()
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID is empty until SignIn or Resume succeeds.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.ID
}

func (s *Session) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Invalidate drops the cached issue list.
func (s *Session) Invalidate() {
	s.cache.Purge()
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// do sends one JSON request. Non-2xx answers become apperr sentinels.
func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	s.mu.RLock()
	closed, token := s.closed, s.token
	s.mu.RUnlock()
	if closed {
		return errors.New("session closed")
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		err := apperr.FromStatus(resp.StatusCode, eb.Error)
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			verr.Field = eb.Field
		}
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", apperr.ErrBackend, method, path, err)
	}
	return nil
}

var _ feed.Backend = (*Session)(nil)
