package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type SprintHandler struct {
	log     *logger.Logger
	sprints services.SprintService
}

func NewSprintHandler(baseLog *logger.Logger, sprints services.SprintService) *SprintHandler {
	return &SprintHandler{
		log:     baseLog.With("handler", "SprintHandler"),
		sprints: sprints,
	}
}

// POST /api/sprints
func (h *SprintHandler) GenerateSprint(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sprint, err := h.sprints.GenerateMasterySprint(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, sprint)
}

// GET /api/sprints?status=
func (h *SprintHandler) ListSprints(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sprints, err := h.sprints.ListSprints(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		h.log.Error("ListSprints failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sprints": sprints})
}

type evaluateSprintRequest struct {
	Accuracy       float64 `json:"accuracy"`
	SpeedSeconds   float64 `json:"speed_seconds"`
	CompletionRate float64 `json:"completion_rate"`
}

// POST /api/sprints/:id/evaluate
func (h *SprintHandler) EvaluateSprint(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sprintID, err := uuid.Parse(c.Param("id"))
	if err != nil || sprintID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_sprint_id", err)
		return
	}

	var req evaluateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	sprint, err := h.sprints.EvaluateSprint(c.Request.Context(), userID, sprintID, services.EvaluateSprintInput{
		Accuracy:       req.Accuracy,
		SpeedSeconds:   req.SpeedSeconds,
		CompletionRate: req.CompletionRate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, sprint)
}

// POST /api/sprints/:id/abandon
func (h *SprintHandler) AbandonSprint(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sprintID, err := uuid.Parse(c.Param("id"))
	if err != nil || sprintID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_sprint_id", err)
		return
	}

	if err := h.sprints.AbandonSprint(c.Request.Context(), userID, sprintID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "abandoned"})
}
