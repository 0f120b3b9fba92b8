package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Signup failed", err)
		return
	}

	utils.SendSuccess(c, "Confirmation code sent", response)
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req services.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.ObtainToken(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Token exchange failed", err)
		return
	}

	utils.SendSuccess(c, "Token issued", response)
}
