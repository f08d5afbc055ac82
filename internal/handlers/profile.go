package handlers

import (
	"context"
	"net/http"

	"brokenexp/internal/gamification"
	"brokenexp/internal/middleware"
	"brokenexp/internal/models"

	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (models.Profile, error)
	UpdateProfile(ctx context.Context, id, userID, name, avatarURL string) (models.Profile, error)
	IssuesByReporter(ctx context.Context, reporterID, viewerID string) ([]models.Issue, error)
	BookmarkedIssues(ctx context.Context, userID string) ([]models.Issue, error)
}

type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(st ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: st}
}

type profileRequest struct {
	Name      string `json:"name" form:"name" binding:"required,max=80"`
	AvatarURL string `json:"avatar_url" form:"avatar_url" binding:"omitempty,url"`
}

// Profile 用户主页
func (h *ProfileHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.store.GetProfile(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	issues, err := h.store.IssuesByReporter(ctx, profile.ID, middleware.CurrentUserID(c))
	if err != nil {
		_ = c.Error(err)
		issues = []models.Issue{}
	}
	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":    profile.Name,
		"Profile":  profile,
		"Progress": gamification.LevelFor(profile.Reputation),
		"Issues":   issues,
		"IsSelf":   profile.ID == middleware.CurrentUserID(c),
	})
}

func (h *ProfileHandler) GetJSON(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":  profile,
		"progress": gamification.LevelFor(profile.Reputation),
	})
}

// Update handles PATCH /api/profiles/me and the settings form.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	userID := middleware.CurrentUserID(c)
	profile, err := h.store.UpdateProfile(c.Request.Context(), userID, userID, req.Name, req.AvatarURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, profile)
		return
	}
	c.Redirect(http.StatusFound, "/u/"+profile.ID)
}

// Bookmarks lists the caller's saved issues.
func (h *ProfileHandler) Bookmarks(c *gin.Context) {
	issues, err := h.store.BookmarkedIssues(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}
