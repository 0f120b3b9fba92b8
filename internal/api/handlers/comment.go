package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

type CommentHandler struct {
	commentService *services.CommentService
	pageSize       int
}

func NewCommentHandler(commentService *services.CommentService, pageSize int) *CommentHandler {
	return &CommentHandler{commentService: commentService, pageSize: pageSize}
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	page := utils.PageFromQuery(c, h.pageSize)
	comments, count, err := h.commentService.List(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, page)
	if err != nil {
		respondError(c, "Failed to retrieve comments", err)
		return
	}

	utils.SendSuccess(c, "Comments retrieved successfully", utils.NewPageResponse(c, page, count, comments))
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, commentID)
	if err != nil {
		respondError(c, "Failed to retrieve comment", err)
		return
	}

	utils.SendSuccess(c, "Comment retrieved successfully", comment)
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var req services.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, "Failed to create comment", err)
		return
	}

	utils.SendCreated(c, "Comment created successfully", comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	var req services.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, commentID, req)
	if err != nil {
		respondError(c, "Failed to update comment", err)
		return
	}

	utils.SendSuccess(c, "Comment updated successfully", comment)
}

// Delete answers 200 with an envelope rather than 204.
func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, "Failed to delete comment", err)
		return
	}

	utils.SendSuccess(c, "Comment deleted successfully", nil)
}

func commentPath(c *gin.Context) (uint, uint, uint, bool) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return 0, 0, 0, false
	}
	commentID, ok := pathID(c, "comment_id", "comment")
	if !ok {
		return 0, 0, 0, false
	}
	return titleID, reviewID, commentID, true
}
