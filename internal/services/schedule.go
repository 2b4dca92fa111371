package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
	"github.com/skillforge/skillforge-backend/internal/scheduler"
)

type ScheduleService interface {
	// GenerateRecallDrills returns every drill due now plus forced drills
	// for topics whose measured retention or accuracy regressed.
	GenerateRecallDrills(ctx context.Context, userID uuid.UUID) ([]scheduler.Drill, error)
}

type ScheduleConfig struct {
	// RetentionFloor forces a drill regardless of interval state.
	RetentionFloor float64
	// StrongAccuracy and WeakAccuracy bound the regression override: a
	// historically strong topic whose weekly accuracy fell below the weak
	// line also gets a forced drill.
	StrongAccuracy float64
	WeakAccuracy   float64

	Aggregator aggregator.Config
}

func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		RetentionFloor: 60,
		StrongAccuracy: 80,
		WeakAccuracy:   70,
		Aggregator:     aggregator.DefaultConfig(),
	}
}

type scheduleService struct {
	activities metrics.ActivityRecordRepo
	topics     learningrepo.TopicMasteryRepo
	sched      *scheduler.Scheduler
	log        *logger.Logger
	cfg        ScheduleConfig
}

func NewScheduleService(
	activities metrics.ActivityRecordRepo,
	topics learningrepo.TopicMasteryRepo,
	sched *scheduler.Scheduler,
	baseLog *logger.Logger,
	cfg ScheduleConfig,
) ScheduleService {
	return &scheduleService{
		activities: activities,
		topics:     topics,
		sched:      sched,
		log:        baseLog.With("service", "ScheduleService"),
		cfg:        cfg,
	}
}

func (s *scheduleService) GenerateRecallDrills(ctx context.Context, userID uuid.UUID) ([]scheduler.Drill, error) {
	now := time.Now().UTC()

	records, err := s.activities.ListByUserSince(ctx, nil, userID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("load activity window: %w", err)
	}
	snap := aggregator.Compute(userID, records, now, s.cfg.Aggregator)

	historical := map[string]float64{}
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load topic mastery: %w", err)
	}
	for _, row := range rows {
		historical[row.Topic] = row.AverageAccuracy
	}

	forcedSet := map[string]bool{}
	for topic, ts := range snap.Topics {
		if ts.Week.HasRetention && ts.Week.RetentionRate < s.cfg.RetentionFloor {
			forcedSet[topic] = true
			continue
		}
		// Regression override: strong history, weak week.
		if ts.Week.HasAccuracy && ts.Week.AverageAccuracy < s.cfg.WeakAccuracy &&
			historical[topic] >= s.cfg.StrongAccuracy {
			forcedSet[topic] = true
		}
	}
	forced := make([]string, 0, len(forcedSet))
	for topic := range forcedSet {
		forced = append(forced, topic)
	}

	return s.sched.DueDrills(ctx, userID, now, forced)
}
