package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/planner"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type GoalService interface {
	// DecomposeGoal orders the goal's objectives by prerequisite and sizes
	// each one from the user's current mastery.
	DecomposeGoal(ctx context.Context, userID uuid.UUID, goal string, specs []planner.ObjectiveSpec) (*planner.GoalPlan, error)
}

type goalService struct {
	models learningrepo.MasteryModelRepo
	topics learningrepo.TopicMasteryRepo
	log    *logger.Logger
	cfg    planner.GoalConfig
}

func NewGoalService(
	models learningrepo.MasteryModelRepo,
	topics learningrepo.TopicMasteryRepo,
	baseLog *logger.Logger,
	cfg planner.GoalConfig,
) GoalService {
	return &goalService{
		models: models,
		topics: topics,
		log:    baseLog.With("service", "GoalService"),
		cfg:    cfg,
	}
}

func (s *goalService) DecomposeGoal(ctx context.Context, userID uuid.UUID, goal string, specs []planner.ObjectiveSpec) (*planner.GoalPlan, error) {
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load topic mastery: %w", err)
	}
	masteries := make(map[string]*domain.TopicMastery, len(rows))
	for _, row := range rows {
		masteries[row.Topic] = row
	}

	model, err := s.models.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load mastery model: %w", err)
	}

	return planner.DecomposeGoal(goal, specs, masteries, patternsFromModel(model), s.cfg)
}
