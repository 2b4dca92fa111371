package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/skillforge/skillforge-backend/internal/http/handlers"
	httpMW "github.com/skillforge/skillforge-backend/internal/http/middleware"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	ActivityHandler *httpH.ActivityHandler
	AnalysisHandler *httpH.AnalysisHandler
	SprintHandler   *httpH.SprintHandler
	ScheduleHandler *httpH.ScheduleHandler
	GoalHandler     *httpH.GoalHandler
	ModelHandler    *httpH.ModelHandler
	FeedbackHandler *httpH.FeedbackHandler

	HealthHandler *httpH.HealthHandler

	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.DELETE("/me", cfg.UserHandler.DeleteMe)
		}

		if cfg.ActivityHandler != nil {
			protected.POST("/activities", cfg.ActivityHandler.RecordActivity)
			protected.GET("/metrics", cfg.ActivityHandler.GetMetrics)
			protected.GET("/metrics/trends", cfg.ActivityHandler.GetTrends)
		}

		if cfg.AnalysisHandler != nil {
			protected.POST("/analysis/weaknesses", cfg.AnalysisHandler.AnalyzeWeaknesses)
			protected.GET("/analysis/weaknesses", cfg.AnalysisHandler.GetLatestRanking)
		}

		if cfg.SprintHandler != nil {
			protected.POST("/sprints", cfg.SprintHandler.GenerateSprint)
			protected.GET("/sprints", cfg.SprintHandler.ListSprints)
			protected.POST("/sprints/:id/evaluate", cfg.SprintHandler.EvaluateSprint)
			protected.POST("/sprints/:id/abandon", cfg.SprintHandler.AbandonSprint)
		}

		if cfg.ScheduleHandler != nil {
			protected.GET("/drills", cfg.ScheduleHandler.GenerateRecallDrills)
		}

		if cfg.GoalHandler != nil {
			protected.POST("/goals/decompose", cfg.GoalHandler.DecomposeGoal)
		}

		if cfg.ModelHandler != nil {
			protected.GET("/mastery", cfg.ModelHandler.GetMasteryModel)
			protected.GET("/mastery/velocity", cfg.ModelHandler.GetLearningVelocity)
		}

		if cfg.FeedbackHandler != nil {
			protected.GET("/feedback", cfg.FeedbackHandler.ListFeedback)
			protected.POST("/feedback/weekly", cfg.FeedbackHandler.WeeklyFeedback)
		}
	}

	return r
}
