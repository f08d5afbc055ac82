package handlers

import (
	"context"
	"net/http"

	"brokenexp/internal/middleware"
	"brokenexp/internal/models"
	"brokenexp/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentStore interface {
	ListComments(ctx context.Context, issueID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, issueID, authorID string, parentID *string, text string) (models.Comment, error)
	UpdateComment(ctx context.Context, id, authorID, text string) (models.Comment, error)
	DeleteComment(ctx context.Context, id, authorID string) error
}

type CommentHandler struct {
	store CommentStore
	cache *utils.TTLCache[any]
}

func NewCommentHandler(st CommentStore, cache *utils.TTLCache[any]) *CommentHandler {
	return &CommentHandler{store: st, cache: cache}
}

type commentRequest struct {
	Text     string  `json:"text" form:"text" binding:"required,max=2000"`
	ParentID *string `json:"parent_id" form:"parent_id"`
}

func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.store.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		// 评论加载失败时返回空列表
		_ = c.Error(err)
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Create(c *gin.Context) {
	issueID := c.Param("id")
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	comment, err := h.store.CreateComment(c.Request.Context(), issueID, middleware.CurrentUserID(c), req.ParentID, req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.cache.Purge()

	if middleware.WantsJSON(c) {
		c.JSON(http.StatusCreated, comment)
		return
	}
	c.Redirect(http.StatusFound, "/issues/"+issueID+"#comment-"+comment.ID)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	comment, err := h.store.UpdateComment(c.Request.Context(), c.Param("cid"), middleware.CurrentUserID(c), req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteComment(c.Request.Context(), c.Param("cid"), middleware.CurrentUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	h.cache.Purge()
	c.Status(http.StatusNoContent)
}
