package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/clients/redis"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	userrepo "github.com/skillforge/skillforge-backend/internal/data/repos/user"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type ErasureService interface {
	// DeleteUserData hard-deletes every row the user owns in one
	// transaction, then purges caches and pending offline work. After it
	// returns, reads for the user come back empty.
	DeleteUserData(ctx context.Context, userID uuid.UUID) error
}

type erasureService struct {
	db         *gorm.DB
	users      userrepo.UserRepo
	activities metrics.ActivityRecordRepo
	models     learningrepo.MasteryModelRepo
	topics     learningrepo.TopicMasteryRepo
	rankings   learningrepo.WeaknessRankingRepo
	schedule   learningrepo.RecallScheduleRepo
	sprints    learningrepo.MasterySprintRepo
	fbRepo     learningrepo.FeedbackRepo
	cache      *redis.Cache
	queue      *redis.OfflineQueue
	log        *logger.Logger
}

func NewErasureService(
	db *gorm.DB,
	users userrepo.UserRepo,
	activities metrics.ActivityRecordRepo,
	models learningrepo.MasteryModelRepo,
	topics learningrepo.TopicMasteryRepo,
	rankings learningrepo.WeaknessRankingRepo,
	schedule learningrepo.RecallScheduleRepo,
	sprints learningrepo.MasterySprintRepo,
	fbRepo learningrepo.FeedbackRepo,
	cache *redis.Cache,
	queue *redis.OfflineQueue,
	baseLog *logger.Logger,
) ErasureService {
	return &erasureService{
		db:         db,
		users:      users,
		activities: activities,
		models:     models,
		topics:     topics,
		rankings:   rankings,
		schedule:   schedule,
		sprints:    sprints,
		fbRepo:     fbRepo,
		cache:      cache,
		queue:      queue,
		log:        baseLog.With("service", "ErasureService"),
	}
}

func (s *erasureService) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			fn   func() error
		}{
			{"feedback", func() error { return s.fbRepo.FullDeleteByUserID(ctx, tx, userID) }},
			{"sprints", func() error { return s.sprints.FullDeleteByUserID(ctx, tx, userID) }},
			{"schedule", func() error { return s.schedule.FullDeleteByUserID(ctx, tx, userID) }},
			{"rankings", func() error { return s.rankings.FullDeleteByUserID(ctx, tx, userID) }},
			{"topic mastery", func() error { return s.topics.FullDeleteByUserID(ctx, tx, userID) }},
			{"mastery model", func() error { return s.models.FullDeleteByUserID(ctx, tx, userID) }},
			{"activities", func() error { return s.activities.FullDeleteByUserID(ctx, tx, userID) }},
			{"user", func() error { return s.users.FullDeleteByID(ctx, tx, userID) }},
		}
		for _, step := range steps {
			if err := step.fn(); err != nil {
				return fmt.Errorf("erase %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The database is the source of truth; cache and queue purges happen
	// after the commit, so a failure here leaves only expendable state.
	if err := s.cache.PurgeUser(ctx, userID); err != nil {
		s.log.Warn("cache purge failed after erasure", "user_id", userID, "error", err)
	}
	if err := s.queue.PurgeUser(ctx, userID); err != nil {
		s.log.Warn("offline queue purge failed after erasure", "user_id", userID, "error", err)
	}

	s.log.Info("user data erased", "user_id", userID)
	return nil
}
