package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type AuthHandler struct {
	log   *logger.Logger
	users services.UserService
	auth  services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, users services.UserService, auth services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:   baseLog.With("handler", "AuthHandler"),
		users: users,
		auth:  auth,
	}
}

type registerRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.log.Error("Register failed (issue token)", "error", err, "user_id", user.ID)
		response.RespondError(c, http.StatusInternalServerError, "issue_token_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user, "token": token})
}
