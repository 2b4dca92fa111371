package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type ModelHandler struct {
	log     *logger.Logger
	mastery services.MasteryService
}

func NewModelHandler(baseLog *logger.Logger, masteryService services.MasteryService) *ModelHandler {
	return &ModelHandler{
		log:     baseLog.With("handler", "ModelHandler"),
		mastery: masteryService,
	}
}

// GET /api/mastery
func (h *ModelHandler) GetMasteryModel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.mastery.GetMasteryModel(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GetMasteryModel failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/mastery/velocity
func (h *ModelHandler) GetLearningVelocity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	topics, average, err := h.mastery.GetLearningVelocity(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GetLearningVelocity failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": topics, "average": average})
}
