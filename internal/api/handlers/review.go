package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	pageSize      int
}

func NewReviewHandler(reviewService *services.ReviewService, pageSize int) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, pageSize: pageSize}
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}

	page := utils.PageFromQuery(c, h.pageSize)
	reviews, count, err := h.reviewService.List(c.Request.Context(), middleware.PrincipalFrom(c), titleID, page)
	if err != nil {
		respondError(c, "Failed to retrieve reviews", err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", utils.NewPageResponse(c, page, count, reviews))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID)
	if err != nil {
		respondError(c, "Failed to retrieve review", err)
		return
	}

	utils.SendSuccess(c, "Review retrieved successfully", review)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), middleware.PrincipalFrom(c), titleID, req)
	if err != nil {
		respondError(c, "Failed to create review", err)
		return
	}

	utils.SendCreated(c, "Review created successfully", review)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, "Failed to update review", err)
		return
	}

	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), titleID, reviewID); err != nil {
		respondError(c, "Failed to delete review", err)
		return
	}

	utils.SendNoContent(c)
}

func reviewPath(c *gin.Context) (uint, uint, bool) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return 0, 0, false
	}
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}
