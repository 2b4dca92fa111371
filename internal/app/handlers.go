package app

import (
	httpH "github.com/skillforge/skillforge-backend/internal/http/handlers"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Handlers struct {
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Activity *httpH.ActivityHandler
	Analysis *httpH.AnalysisHandler
	Sprint   *httpH.SprintHandler
	Schedule *httpH.ScheduleHandler
	Goal     *httpH.GoalHandler
	Model    *httpH.ModelHandler
	Feedback *httpH.FeedbackHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     httpH.NewAuthHandler(log, s.User, s.Auth),
		User:     httpH.NewUserHandler(log, s.User, s.Erasure),
		Activity: httpH.NewActivityHandler(log, s.Activity),
		Analysis: httpH.NewAnalysisHandler(log, s.Analysis),
		Sprint:   httpH.NewSprintHandler(log, s.Sprint),
		Schedule: httpH.NewScheduleHandler(log, s.Schedule),
		Goal:     httpH.NewGoalHandler(log, s.Goal),
		Model:    httpH.NewModelHandler(log, s.Mastery),
		Feedback: httpH.NewFeedbackHandler(log, s.Feedback),
		Health:   httpH.NewHealthHandler(),
	}
}
