package handlers

import (
	"context"
	"net/http"

	"brokenexp/internal/mapview"
	"brokenexp/internal/middleware"
	"brokenexp/internal/models"

	"github.com/gin-gonic/gin"
)

type MapStore interface {
	ListIssues(ctx context.Context, viewerID string) ([]models.Issue, error)
}

// MapHandler serves the embeddable Leaflet page and its data.
type MapHandler struct {
	store  MapStore
	center mapview.Center
}

func NewMapHandler(st MapStore, center mapview.Center) *MapHandler {
	return &MapHandler{store: st, center: center}
}

// Page renders the self-contained map. Hosts drive it with postMessage.
func (h *MapHandler) Page(c *gin.Context) {
	center, err := mapview.Encode(h.center)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.HTML(http.StatusOK, "map.html", gin.H{
		"Title":  "Issue map",
		"Center": string(center),
	})
}

// Issues returns the UPDATE_ISSUES envelope, ready to post into the map.
func (h *MapHandler) Issues(c *gin.Context) {
	issues, err := h.store.ListIssues(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		_ = c.Error(err)
		issues = []models.Issue{}
	}
	body, err := mapview.Encode(mapview.NewIssues(issues))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Center returns the SET_CENTER envelope for the configured default view.
func (h *MapHandler) Center(c *gin.Context) {
	body, err := mapview.Encode(h.center)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
