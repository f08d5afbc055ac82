package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"brokenexp/internal/apperr"
	"brokenexp/internal/metrics"
	"brokenexp/internal/middleware"
	"brokenexp/internal/models"
	"brokenexp/internal/search"
	"brokenexp/internal/store"
	"brokenexp/internal/utils"

	"github.com/charmbracelet/log/v2"
	"github.com/gin-gonic/gin"
)

// IssueStore is the part of store.Store the issue pages use.
type IssueStore interface {
	ListIssues(ctx context.Context, viewerID string) ([]models.Issue, error)
	GetIssue(ctx context.Context, id, viewerID string) (models.Issue, error)
	CreateIssue(ctx context.Context, reporterID string, issue *models.Issue) error
	UpdateIssue(ctx context.Context, id, userID string, upd store.IssueUpdate) (models.Issue, error)
	DeleteIssue(ctx context.Context, id, userID string) error
	ListComments(ctx context.Context, issueID string) ([]models.Comment, error)
}

type IssueHandler struct {
	store    IssueStore
	engine   *search.Engine
	cache    *utils.TTLCache[any]
	cacheTTL time.Duration
	logger   *log.Logger
}

func NewIssueHandler(st IssueStore, cache *utils.TTLCache[any], cacheTTL time.Duration, logger *log.Logger) *IssueHandler {
	return &IssueHandler{
		store:    st,
		engine:   search.New(),
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type issueRequest struct {
	Title       string  `json:"title" form:"title" binding:"required,max=200"`
	Description string  `json:"description" form:"description" binding:"required,max=5000"`
	Category    string  `json:"category" form:"category" binding:"required,category"`
	Priority    string  `json:"priority" form:"priority" binding:"omitempty,priority"`
	Latitude    float64 `json:"latitude" form:"latitude" binding:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" form:"longitude" binding:"gte=-180,lte=180"`
	Address     string  `json:"address" form:"address" binding:"max=300"`
	ImageURL    string  `json:"image_url" form:"image_url" binding:"omitempty,url"`
	Anonymous   bool    `json:"anonymous" form:"anonymous"`
}

type issuePatch struct {
	Title       *string `json:"title" form:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" form:"description" binding:"omitempty,min=1,max=5000"`
	Category    *string `json:"category" form:"category" binding:"omitempty,category"`
	Priority    *string `json:"priority" form:"priority" binding:"omitempty,priority"`
	Status      *string `json:"status" form:"status" binding:"omitempty,status"`
	Address     *string `json:"address" form:"address" binding:"omitempty,max=300"`
	ImageURL    *string `json:"image_url" form:"image_url"`
}

func (p issuePatch) update() store.IssueUpdate {
	upd := store.IssueUpdate{
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		ImageURL:    p.ImageURL,
	}
	if p.Category != nil {
		v := models.Category(*p.Category)
		upd.Category = &v
	}
	if p.Priority != nil {
		v := models.Priority(*p.Priority)
		upd.Priority = &v
	}
	if p.Status != nil {
		v := models.Status(*p.Status)
		upd.Status = &v
	}
	return upd
}

// feed returns the newest-first list for the viewer, cached briefly.
func (h *IssueHandler) feed(c *gin.Context) ([]models.Issue, error) {
	viewer := middleware.CurrentUserID(c)
	key := "issues:all:" + viewer
	if cached, ok := h.cache.Get(key); ok {
		if issues, ok := cached.([]models.Issue); ok {
			return issues, nil
		}
	}
	issues, err := h.store.ListIssues(c.Request.Context(), viewer)
	if err != nil {
		return nil, err
	}
	h.cache.Set(key, issues, h.cacheTTL)
	return issues, nil
}

// invalidate drops every cached feed; any write can change any viewer's list.
func (h *IssueHandler) invalidate() {
	h.cache.Purge()
}

// List renders the home feed with search and filters.
func (h *IssueHandler) List(c *gin.Context) {
	query, filters, err := parseFilters(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	issues, err := h.feed(c)
	if err != nil {
		// 列表加载失败时降级为空列表
		h.logger.Error("load feed", "err", err)
		issues = []models.Issue{}
	}

	res := h.engine.Filter(issues, query, filters)
	if len(res.Similar) > 0 {
		metrics.SearchFallback()
	}
	Render(c, http.StatusOK, "issue/list.html", gin.H{
		"Title":      "Community Issues",
		"Query":      query,
		"Filters":    filters,
		"Exact":      res.Exact,
		"Similar":    res.Similar,
		"Total":      len(issues),
		"Categories": models.Categories,
		"Statuses":   models.Statuses,
		"Priorities": models.Priorities,
		"LoadFailed": err != nil,
	})
}

// ListJSON returns the whole feed; API clients filter it locally.
func (h *IssueHandler) ListJSON(c *gin.Context) {
	issues, err := h.feed(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// SearchJSON runs the query engine server-side for thin clients.
func (h *IssueHandler) SearchJSON(c *gin.Context) {
	query, filters, err := parseFilters(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	issues, err := h.feed(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res := h.engine.Filter(issues, query, filters)
	if len(res.Similar) > 0 {
		metrics.SearchFallback()
	}
	c.JSON(http.StatusOK, gin.H{"exact": res.Exact, "similar": res.Similar})
}

func (h *IssueHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	issue, err := h.store.GetIssue(ctx, c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	comments, err := h.store.ListComments(ctx, issue.ID)
	if err != nil {
		h.logger.Warn("load comments", "issue", issue.ID, "err", err)
		comments = []models.Comment{}
	}

	rendered := make(map[string]any, len(comments))
	for _, cm := range comments {
		rendered[cm.ID] = utils.RenderMarkdown(cm.Text)
	}
	Render(c, http.StatusOK, "issue/detail.html", gin.H{
		"Title":           issue.Title,
		"Issue":           issue,
		"DescriptionHTML": utils.RenderMarkdown(issue.Description),
		"Comments":        comments,
		"CommentHTML":     rendered,
		"IsOwner":         issue.OwnedBy(middleware.CurrentUserID(c)),
		"Statuses":        models.Statuses,
		"MaxDepth":        models.MaxCommentDepth,
	})
}

func (h *IssueHandler) GetJSON(c *gin.Context) {
	issue, err := h.store.GetIssue(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "issue/new.html", gin.H{
		"Title":      "Report an issue",
		"Categories": models.Categories,
		"Priorities": models.Priorities,
	})
}

// Create handles both the web form and POST /api/issues.
func (h *IssueHandler) Create(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBind(&req); err != nil {
		h.createFailed(c, req, bindError(err))
		return
	}

	issue := models.Issue{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    models.Category(req.Category),
		Priority:    models.Priority(req.Priority),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     strings.TrimSpace(req.Address),
	}
	if req.ImageURL != "" {
		issue.ImageURL = &req.ImageURL
	}
	reporter := middleware.CurrentUserID(c)
	if req.Anonymous {
		reporter = ""
	}
	if err := h.store.CreateIssue(c.Request.Context(), reporter, &issue); err != nil {
		h.createFailed(c, req, err)
		return
	}
	h.invalidate()
	metrics.IssueCreated()
	h.logger.Info("issue reported", "issue", issue.ID, "category", issue.Category)

	if middleware.WantsJSON(c) {
		c.JSON(http.StatusCreated, issue)
		return
	}
	c.Redirect(http.StatusFound, "/issues/"+issue.ID)
}

func (h *IssueHandler) createFailed(c *gin.Context, req issueRequest, err error) {
	if middleware.WantsJSON(c) || apperr.Status(err) != http.StatusBadRequest {
		abortWithError(c, err)
		return
	}
	Render(c, http.StatusBadRequest, "issue/new.html", gin.H{
		"Title":      "Report an issue",
		"Error":      publicMessage(err, http.StatusBadRequest),
		"Form":       req,
		"Categories": models.Categories,
		"Priorities": models.Priorities,
	})
}

// Update handles PATCH /api/issues/:id and the owner's status form.
func (h *IssueHandler) Update(c *gin.Context) {
	var patch issuePatch
	if err := c.ShouldBind(&patch); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	issue, err := h.store.UpdateIssue(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), patch.update())
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.invalidate()

	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, issue)
		return
	}
	c.Redirect(http.StatusFound, "/issues/"+issue.ID)
}

// Delete is owner-only; comments, upvotes and bookmarks go with the issue.
func (h *IssueHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteIssue(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	h.invalidate()
	h.logger.Info("issue deleted", "issue", id)

	if middleware.WantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// parseFilters reads q, status, category, priority, author, from, to and within.
func parseFilters(c *gin.Context) (string, search.FilterSet, error) {
	f := search.FilterSet{
		Status:   models.Status(c.Query("status")),
		Category: models.Category(c.Query("category")),
		Priority: models.Priority(c.Query("priority")),
		Author:   strings.TrimSpace(c.Query("author")),
		Within:   search.Within(c.Query("within")),
	}
	if f.Status != "" && f.Status != "all" && !f.Status.Valid() {
		return "", f, apperr.Invalid("status", "unknown status")
	}
	if f.Category != "" && f.Category != "all" && !f.Category.Valid() {
		return "", f, apperr.Invalid("category", "unknown category")
	}
	if f.Priority != "" && f.Priority != "all" && !f.Priority.Valid() {
		return "", f, apperr.Invalid("priority", "unknown priority")
	}
	if !f.Within.Valid() {
		return "", f, apperr.Invalid("within", "must be today, week, month or year")
	}
	for _, d := range []struct {
		param string
		dst   **time.Time
	}{{"from", &f.DateFrom}, {"to", &f.DateTo}} {
		v := strings.TrimSpace(c.Query(d.param))
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return "", f, apperr.Invalid(d.param, "must be a date like 2024-06-30")
		}
		*d.dst = &t
	}
	return c.Query("q"), f, nil
}
