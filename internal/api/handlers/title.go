package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

type TitleHandler struct {
	titleService *services.TitleService
	pageSize     int
}

func NewTitleHandler(titleService *services.TitleService, pageSize int) *TitleHandler {
	return &TitleHandler{titleService: titleService, pageSize: pageSize}
}

// List accepts ?category=, ?genre= (repeatable, any match), ?name= and
// ?year=.
func (h *TitleHandler) List(c *gin.Context) {
	filter := services.TitleFilter{
		Category: c.QueryArray("category"),
		Genre:    c.QueryArray("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.SendFieldErrors(c, "Invalid filter", map[string]string{"year": "Enter a whole number."})
			return
		}
		filter.Year = &year
	}

	page := utils.PageFromQuery(c, h.pageSize)
	titles, count, err := h.titleService.List(c.Request.Context(), middleware.PrincipalFrom(c), filter, page)
	if err != nil {
		respondError(c, "Failed to retrieve titles", err)
		return
	}

	utils.SendSuccess(c, "Titles retrieved successfully", utils.NewPageResponse(c, page, count, titles))
}

func (h *TitleHandler) Get(c *gin.Context) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}

	title, err := h.titleService.Get(c.Request.Context(), middleware.PrincipalFrom(c), titleID)
	if err != nil {
		respondError(c, "Failed to retrieve title", err)
		return
	}

	utils.SendSuccess(c, "Title retrieved successfully", title)
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req services.TitleCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Create(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create title", err)
		return
	}

	utils.SendCreated(c, "Title created successfully", title)
}

func (h *TitleHandler) Update(c *gin.Context) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}

	var req services.TitleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Update(c.Request.Context(), middleware.PrincipalFrom(c), titleID, req)
	if err != nil {
		respondError(c, "Failed to update title", err)
		return
	}

	utils.SendSuccess(c, "Title updated successfully", title)
}

func (h *TitleHandler) Delete(c *gin.Context) {
	titleID, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}

	if err := h.titleService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), titleID); err != nil {
		respondError(c, "Failed to delete title", err)
		return
	}

	utils.SendNoContent(c)
}
