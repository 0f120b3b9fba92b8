package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
	pageSize    int
}

func NewUserHandler(userService *services.UserService, pageSize int) *UserHandler {
	return &UserHandler{userService: userService, pageSize: pageSize}
}

func (h *UserHandler) List(c *gin.Context) {
	page := utils.PageFromQuery(c, h.pageSize)
	filter := services.UserFilter{
		Role:     c.Query("role"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	users, count, err := h.userService.List(c.Request.Context(), middleware.PrincipalFrom(c), filter, page)
	if err != nil {
		respondError(c, "Failed to retrieve users", err)
		return
	}

	utils.SendSuccess(c, "Users retrieved successfully", utils.NewPageResponse(c, page, count, users))
}

func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, "Failed to create user", err)
		return
	}

	utils.SendCreated(c, "User created successfully", user)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, "Failed to retrieve user", err)
		return
	}

	utils.SendSuccess(c, "User retrieved successfully", user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("username"), req)
	if err != nil {
		respondError(c, "Failed to update user", err)
		return
	}

	utils.SendSuccess(c, "User updated successfully", user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("username")); err != nil {
		respondError(c, "Failed to delete user", err)
		return
	}

	utils.SendNoContent(c)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, "Failed to retrieve profile", err)
		return
	}

	utils.SendSuccess(c, "Profile retrieved successfully", user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, "Failed to update profile", err)
		return
	}

	utils.SendSuccess(c, "Profile updated successfully", user)
}
