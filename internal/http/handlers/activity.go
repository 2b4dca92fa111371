package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type ActivityHandler struct {
	log        *logger.Logger
	activities services.ActivityService
}

func NewActivityHandler(baseLog *logger.Logger, activities services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:        baseLog.With("handler", "ActivityHandler"),
		activities: activities,
	}
}

type recordActivityRequest struct {
	ActivityID     uuid.UUID `json:"activity_id"`
	Type           string    `json:"type"`
	Topic          string    `json:"topic"`
	ContentType    string    `json:"content_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	SpeedSeconds   float64   `json:"speed_seconds"`
	Accuracy       float64   `json:"accuracy"`
	CompletionRate float64   `json:"completion_rate"`
	Difficulty     *int      `json:"difficulty,omitempty"`
}

// POST /api/activities
func (h *ActivityHandler) RecordActivity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req recordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.activities.RecordActivity(c.Request.Context(), services.RecordActivityInput{
		UserID:         userID,
		ActivityID:     req.ActivityID,
		Type:           req.Type,
		Topic:          req.Topic,
		ContentType:    req.ContentType,
		OccurredAt:     req.OccurredAt,
		SpeedSeconds:   req.SpeedSeconds,
		Accuracy:       req.Accuracy,
		CompletionRate: req.CompletionRate,
		Difficulty:     req.Difficulty,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result.Queued {
		response.RespondAccepted(c, result)
		return
	}
	response.RespondCreated(c, result)
}

// GET /api/metrics?topic=
func (h *ActivityHandler) GetMetrics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := h.activities.GetMetrics(c.Request.Context(), userID, c.Query("topic"))
	if err != nil {
		h.log.Error("GetMetrics failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, snap)
}

// GET /api/metrics/trends
func (h *ActivityHandler) GetTrends(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	trends, err := h.activities.GetTrends(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GetTrends failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trends": trends})
}
