package handlers

import (
	"context"
	"net/http"

	"brokenexp/internal/feed"
	"brokenexp/internal/metrics"
	"brokenexp/internal/middleware"
	"brokenexp/internal/utils"

	"github.com/gin-gonic/gin"
)

type ToggleStore interface {
	ToggleMembership(ctx context.Context, kind feed.Kind, issueID, userID string) (bool, int64, error)
}

// ToggleHandler is the server side of upvote and bookmark.
type ToggleHandler struct {
	store ToggleStore
	cache *utils.TTLCache[any]
}

func NewToggleHandler(st ToggleStore, cache *utils.TTLCache[any]) *ToggleHandler {
	return &ToggleHandler{store: st, cache: cache}
}

func (h *ToggleHandler) Upvote(c *gin.Context) {
	h.toggle(c, feed.Upvote)
}

func (h *ToggleHandler) Bookmark(c *gin.Context) {
	h.toggle(c, feed.Bookmark)
}

// toggle answers {"active": bool, "count": n} with the authoritative state.
func (h *ToggleHandler) toggle(c *gin.Context, kind feed.Kind) {
	issueID := c.Param("id")
	active, count, err := h.store.ToggleMembership(c.Request.Context(), kind, issueID, middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	// 主动失效列表缓存
	h.cache.Purge()
	metrics.Toggle(string(kind), active)

	c.JSON(http.StatusOK, gin.H{
		"issue_id": issueID,
		"kind":     kind,
		"active":   active,
		"count":    count,
	})
}
