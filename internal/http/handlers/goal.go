package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type GoalHandler struct {
	log   *logger.Logger
	goals services.GoalService
}

func NewGoalHandler(baseLog *logger.Logger, goals services.GoalService) *GoalHandler {
	return &GoalHandler{
		log:   baseLog.With("handler", "GoalHandler"),
		goals: goals,
	}
}

type objectiveSpecRequest struct {
	Name          string   `json:"name"`
	Topic         string   `json:"topic"`
	Prereqs       []string `json:"prereqs,omitempty"`
	TargetMastery float64  `json:"target_mastery"`
}

type decomposeGoalRequest struct {
	Goal       string                 `json:"goal" binding:"required"`
	Objectives []objectiveSpecRequest `json:"objectives" binding:"required"`
}

// POST /api/goals/decompose
func (h *GoalHandler) DecomposeGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req decomposeGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	specs := make([]planner.ObjectiveSpec, 0, len(req.Objectives))
	for _, o := range req.Objectives {
		specs = append(specs, planner.ObjectiveSpec{
			Name:          o.Name,
			Topic:         o.Topic,
			Prereqs:       o.Prereqs,
			TargetMastery: o.TargetMastery,
		})
	}

	plan, err := h.goals.DecomposeGoal(c.Request.Context(), userID, req.Goal, specs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, plan)
}
