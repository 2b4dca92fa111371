package app

import (
	internalhttp "github.com/skillforge/skillforge-backend/internal/http"
	httpMW "github.com/skillforge/skillforge-backend/internal/http/middleware"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers, s Services) *internalhttp.Server {
	log.Info("Wiring router...")
	return internalhttp.NewServer(internalhttp.RouterConfig{
		Log:             log,
		AuthHandler:     h.Auth,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, s.Auth),
		UserHandler:     h.User,
		ActivityHandler: h.Activity,
		AnalysisHandler: h.Analysis,
		SprintHandler:   h.Sprint,
		ScheduleHandler: h.Schedule,
		GoalHandler:     h.Goal,
		ModelHandler:    h.Model,
		FeedbackHandler: h.Feedback,
		HealthHandler:   h.Health,
		CORSOrigins:     cfg.CORSOrigins,
	})
}
