package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brokenexp/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type fakeUsers map[string]models.User

func (f fakeUsers) UserByID(ctx context.Context, id string) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

type fakeTokens map[string]string

func (f fakeTokens) Parse(raw string) (string, error) {
	id, ok := f[raw]
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f fakeLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	return f.allow, time.Hour, f.err
}

func newRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.Use(LoadUser(fakeUsers{"u1": {ID: "u1"}}, fakeTokens{"good": "u1", "ghost": "u9"}))

	r.GET("/api/whoami", func(c *gin.Context) { c.String(http.StatusOK, CurrentUserID(c)) })
	r.POST("/api/issues", AuthRequired(), IssueRateLimit(l), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/submit", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadUser(t *testing.T) {
	r := newRouter(nil)

	tests := []struct {
		token string
		code  int
		body  string
	}{
		{"", http.StatusOK, ""},
		{"good", http.StatusOK, "u1"},
		{"ghost", http.StatusOK, ""}, // valid token, deleted user
		{"forged", http.StatusUnauthorized, `{"error":"invalid authorization token"}`},
	}
	for _, tt := range tests {
		w := do(r, http.MethodGet, "/api/whoami", tt.token)
		if w.Code != tt.code || w.Body.String() != tt.body {
			t.Errorf("token %q: got %d %q, want %d %q", tt.token, w.Code, w.Body.String(), tt.code, tt.body)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(nil)

	if w := do(r, http.MethodPost, "/api/issues", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous API call: %d", w.Code)
	}
	w := do(r, http.MethodGet, "/submit", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login?next=%2Fsubmit" {
		t.Errorf("anonymous page: %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := do(r, http.MethodPost, "/api/issues", "good"); w.Code != http.StatusCreated {
		t.Errorf("signed-in API call: %d", w.Code)
	}
}

func TestIssueRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter fakeLimiter
		code    int
	}{
		{"allowed", fakeLimiter{allow: true}, http.StatusCreated},
		{"exceeded", fakeLimiter{allow: false}, http.StatusTooManyRequests},
		{"redis down", fakeLimiter{err: errors.New("dial tcp")}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(tt.limiter), http.MethodPost, "/api/issues", "good")
			if w.Code != tt.code {
				t.Fatalf("got %d, want %d", w.Code, tt.code)
			}
		})
	}
}
