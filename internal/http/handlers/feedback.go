package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type FeedbackHandler struct {
	log      *logger.Logger
	feedback services.FeedbackService
}

func NewFeedbackHandler(baseLog *logger.Logger, feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		log:      baseLog.With("handler", "FeedbackHandler"),
		feedback: feedback,
	}
}

// GET /api/feedback?since=RFC3339
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_since", err)
			return
		}
		since = parsed
	}

	entries, err := h.feedback.ListFeedback(c.Request.Context(), userID, since)
	if err != nil {
		h.log.Error("ListFeedback failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": entries})
}

// POST /api/feedback/weekly
func (h *FeedbackHandler) WeeklyFeedback(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entry, err := h.feedback.WeeklyFeedback(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("WeeklyFeedback failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, entry)
}
