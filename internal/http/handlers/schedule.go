package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type ScheduleHandler struct {
	log      *logger.Logger
	schedule services.ScheduleService
}

func NewScheduleHandler(baseLog *logger.Logger, schedule services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		log:      baseLog.With("handler", "ScheduleHandler"),
		schedule: schedule,
	}
}

// GET /api/drills
func (h *ScheduleHandler) GenerateRecallDrills(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	drills, err := h.schedule.GenerateRecallDrills(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GenerateRecallDrills failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"drills": drills})
}
