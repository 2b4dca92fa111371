package app

import (
	"gorm.io/gorm"

	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Repos struct {
	User       userrepo.UserRepo
	Activities metrics.ActivityRecordRepo

	MasteryModel learningrepo.MasteryModelRepo
	TopicMastery learningrepo.TopicMasteryRepo
	Rankings     learningrepo.WeaknessRankingRepo
	Schedule     learningrepo.RecallScheduleRepo
	Sprints      learningrepo.MasterySprintRepo
	Feedback     learningrepo.FeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         userrepo.NewUserRepo(db, log),
		Activities:   metrics.NewActivityRecordRepo(db, log),
		MasteryModel: learningrepo.NewMasteryModelRepo(db, log),
		TopicMastery: learningrepo.NewTopicMasteryRepo(db, log),
		Rankings:     learningrepo.NewWeaknessRankingRepo(db, log),
		Schedule:     learningrepo.NewRecallScheduleRepo(db, log),
		Sprints:      learningrepo.NewMasterySprintRepo(db, log),
		Feedback:     learningrepo.NewFeedbackRepo(db, log),
	}
}
