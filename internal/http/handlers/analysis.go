package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type AnalysisHandler struct {
	log      *logger.Logger
	analysis services.AnalysisService
}

func NewAnalysisHandler(baseLog *logger.Logger, analysis services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:      baseLog.With("handler", "AnalysisHandler"),
		analysis: analysis,
	}
}

type analyzeRequest struct {
	// Importance optionally weights topics; 1.0 when omitted.
	Importance map[string]float64 `json:"importance,omitempty"`
}

// POST /api/analysis/weaknesses
func (h *AnalysisHandler) AnalyzeWeaknesses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	ranking, err := h.analysis.AnalyzeWeaknesses(c.Request.Context(), userID, req.Importance)
	if err != nil {
		h.log.Error("AnalyzeWeaknesses failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, ranking)
}

// GET /api/analysis/weaknesses
func (h *AnalysisHandler) GetLatestRanking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ranking, err := h.analysis.LatestRanking(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GetLatestRanking failed", "error", err, "user_id", userID)
		respondServiceError(c, err)
		return
	}
	if ranking == nil {
		response.RespondError(c, http.StatusNotFound, "ranking_not_found", nil)
		return
	}
	response.RespondOK(c, ranking)
}
