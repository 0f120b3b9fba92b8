package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

// CatalogHandler serves categories and genres.
type CatalogHandler struct {
	catalogService *services.CatalogService
	pageSize       int
}

func NewCatalogHandler(catalogService *services.CatalogService, pageSize int) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, pageSize: pageSize}
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	page := utils.PageFromQuery(c, h.pageSize)
	categories, count, err := h.catalogService.ListCategories(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("search"), page)
	if err != nil {
		respondError(c, "Failed to retrieve categories", err)
		return
	}
	utils.SendSuccess(c, "Categories retrieved successfully", utils.NewPageResponse(c, page, count, categories))
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CatalogEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create category", err)
		return
	}
	utils.SendCreated(c, "Category created successfully", category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("slug")); err != nil {
		respondError(c, "Failed to delete category", err)
		return
	}
	utils.SendNoContent(c)
}

func (h *CatalogHandler) ListGenres(c *gin.Context) {
	page := utils.PageFromQuery(c, h.pageSize)
	genres, count, err := h.catalogService.ListGenres(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("search"), page)
	if err != nil {
		respondError(c, "Failed to retrieve genres", err)
		return
	}
	utils.SendSuccess(c, "Genres retrieved successfully", utils.NewPageResponse(c, page, count, genres))
}

func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req services.CatalogEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	genre, err := h.catalogService.CreateGenre(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create genre", err)
		return
	}
	utils.SendCreated(c, "Genre created successfully", genre)
}

func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	if err := h.catalogService.DeleteGenre(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("slug")); err != nil {
		respondError(c, "Failed to delete genre", err)
		return
	}
	utils.SendNoContent(c)
}
