package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/content"
	"github.com/skillforge/skillforge-backend/internal/http/response"
	"github.com/skillforge/skillforge-backend/internal/mastery"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/apierr"
	"github.com/skillforge/skillforge-backend/internal/platform/ctxutil"
	"github.com/skillforge/skillforge-backend/internal/services"
)

// currentUser pulls the authenticated user id off the request context.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// respondServiceError translates service-layer failures into HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		response.RespondFieldErrors(c, "invalid_input", vErr.Fields)
		return
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
	case errors.Is(err, services.ErrSprintNotFound):
		response.RespondError(c, http.StatusNotFound, "sprint_not_found", err)
	case errors.Is(err, services.ErrSprintNotActive):
		response.RespondError(c, http.StatusConflict, "sprint_not_active", err)
	case errors.Is(err, services.ErrSprintExpired):
		response.RespondError(c, http.StatusGone, "sprint_expired", err)
	case errors.Is(err, services.ErrSprintAlreadyActive):
		response.RespondError(c, http.StatusConflict, "sprint_already_active", err)
	case errors.Is(err, services.ErrNoWeaknessRanking), errors.Is(err, planner.ErrNoWeaknesses):
		response.RespondError(c, http.StatusUnprocessableEntity, "no_weaknesses", err)
	case errors.Is(err, planner.ErrInsufficientContent):
		response.RespondError(c, http.StatusUnprocessableEntity, "insufficient_content", err)
	case errors.Is(err, planner.ErrCycle):
		response.RespondError(c, http.StatusUnprocessableEntity, "objective_cycle", err)
	case errors.Is(err, planner.ErrNoObjectives):
		response.RespondError(c, http.StatusBadRequest, "no_objectives", err)
	case errors.Is(err, mastery.ErrConflict):
		response.RespondError(c, http.StatusConflict, "model_update_conflict", err)
	case errors.Is(err, content.ErrUnavailable):
		response.RespondError(c, http.StatusServiceUnavailable, "content_unavailable", err)
	case errors.Is(err, services.ErrInvalidToken):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
