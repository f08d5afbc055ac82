package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brokenexp/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// SessionUserKey is the cookie session key holding the signed-in user id.
const SessionUserKey = "user_id"

// UserFinder loads the user a session or token points at.
type UserFinder interface {
	UserByID(ctx context.Context, id string) (models.User, error)
}

// TokenParser verifies a bearer token and returns its user id.
type TokenParser interface {
	Parse(raw string) (string, error)
}

// LoadUser resolves the caller from a bearer token (API clients) or the cookie
// session (web) and stores it under CheckUserKey. Anonymous requests pass through.
func LoadUser(users UserFinder, tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID string
		if raw, ok := bearer(c.GetHeader("Authorization")); ok {
			id, err := tokens.Parse(raw)
			if err != nil {
				abortUnauthenticated(c, "invalid authorization token")
				return
			}
			userID = id
		} else if id, ok := sessions.Default(c).Get(SessionUserKey).(string); ok {
			userID = id
		}

		if userID != "" {
			if user, err := users.UserByID(c.Request.Context(), userID); err == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous callers: JSON 401 for the API, a redirect to
// the login page for the web.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortUnauthenticated(c, "sign in required")
			return
		}
		c.Next()
	}
}

// Limiter is satisfied by services.IssueLimiter.
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, time.Duration, error)
}

// IssueRateLimit caps issue creation per user. A limiter error lets the request
// through rather than blocking reports.
func IssueRateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if l == nil || user == nil {
			c.Next()
			return
		}
		ok, retry, err := l.Allow(c.Request.Context(), user.ID)
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(retry.Seconds()),
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CurrentUserID is empty for anonymous callers.
func CurrentUserID(c *gin.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// WantsJSON reports whether the caller is an API client rather than a browser page.
func WantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

func abortUnauthenticated(c *gin.Context, msg string) {
	if WantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.Path))
	c.Abort()
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
