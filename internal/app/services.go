package app

import (
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/feedback"
	"github.com/skillforge/skillforge-backend/internal/mastery"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/scheduler"
	"github.com/skillforge/skillforge-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Activity services.ActivityService
	Analysis services.AnalysisService
	Sprint   services.SprintService
	Schedule services.ScheduleService
	Goal     services.GoalService
	Mastery  services.MasteryService
	Feedback services.FeedbackService
	Erasure  services.ErasureService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, t Tunables, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	engine := mastery.NewEngine(repos.MasteryModel, repos.TopicMastery, repos.Activities, log, t.Mastery)
	sched := scheduler.New(repos.Schedule, log, t.Scheduler)
	generator := planner.NewGenerator(clients.Content, log, t.Sprint)
	synth := feedback.New(log, feedback.DefaultConfig())

	analysis := services.NewAnalysisService(repos.Activities, repos.Rankings, repos.Feedback, clients.Cache, log, t.Analysis)
	sprint := services.NewSprintService(repos.Sprints, repos.MasteryModel, repos.TopicMastery, repos.Feedback, analysis, generator, synth, log)
	activity := services.NewActivityService(
		repos.User, repos.Activities, repos.TopicMastery, repos.Feedback,
		engine, sched, analysis, sprint, synth,
		clients.Cache, clients.OfflineQueue, log, t.Activity,
	)

	return Services{
		Auth: services.NewAuthService(repos.User, log, services.AuthConfig{
			Secret:   cfg.JWTSecretKey,
			TokenTTL: cfg.AccessTokenTTL,
			Issuer:   "skillforge",
		}),
		User:     services.NewUserService(repos.User, log),
		Activity: activity,
		Analysis: analysis,
		Sprint:   sprint,
		Schedule: services.NewScheduleService(repos.Activities, repos.TopicMastery, sched, log, t.Schedule),
		Goal:     services.NewGoalService(repos.MasteryModel, repos.TopicMastery, log, t.Goal),
		Mastery:  services.NewMasteryService(repos.MasteryModel, repos.TopicMastery, clients.Cache, log, t.MasteryRead),
		Feedback: services.NewFeedbackService(repos.Activities, repos.Feedback, analysis, synth, log, t.Activity.Aggregator),
		Erasure: services.NewErasureService(
			db, repos.User, repos.Activities, repos.MasteryModel, repos.TopicMastery,
			repos.Rankings, repos.Schedule, repos.Sprints, repos.Feedback,
			clients.Cache, clients.OfflineQueue, log,
		),
	}
}
