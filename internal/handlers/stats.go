package handlers

import (
	"context"
	"net/http"
	"time"

	"brokenexp/internal/models"

	"github.com/charmbracelet/log/v2"
	"github.com/gin-gonic/gin"
)

type StatsStore interface {
	Stats(ctx context.Context, now time.Time) (models.Stats, error)
}

type StatsHandler struct {
	store  StatsStore
	logger *log.Logger
}

func NewStatsHandler(st StatsStore, logger *log.Logger) *StatsHandler {
	return &StatsHandler{store: st, logger: logger}
}

// load never fails: a broken aggregate degrades to zeros.
func (h *StatsHandler) load(c *gin.Context) (models.Stats, bool) {
	stats, err := h.store.Stats(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("load stats", "err", err)
		return models.EmptyStats(), true
	}
	return stats, false
}

func (h *StatsHandler) Page(c *gin.Context) {
	stats, degraded := h.load(c)
	Render(c, http.StatusOK, "stats.html", gin.H{
		"Title":          "Community stats",
		"Stats":          stats,
		"ResolutionRate": stats.ResolutionRate(),
		"Degraded":       degraded,
	})
}

func (h *StatsHandler) JSON(c *gin.Context) {
	stats, degraded := h.load(c)
	c.JSON(http.StatusOK, gin.H{
		"stats":           stats,
		"resolution_rate": stats.ResolutionRate(),
		"degraded":        degraded,
	})
}
