package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type UserHandler struct {
	log     *logger.Logger
	users   services.UserService
	erasure services.ErasureService
}

func NewUserHandler(baseLog *logger.Logger, users services.UserService, erasure services.ErasureService) *UserHandler {
	return &UserHandler{
		log:     baseLog.With("handler", "UserHandler"),
		users:   users,
		erasure: erasure,
	}
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, user)
}

// DELETE /api/me
//
// Full erasure: every stored trace of the user is removed, including
// pending offline work.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.erasure.DeleteUserData(c.Request.Context(), userID); err != nil {
		h.log.Error("DeleteMe failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "erased"})
}
