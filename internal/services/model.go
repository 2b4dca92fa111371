package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/clients/redis"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type MasteryService interface {
	// GetMasteryModel returns the model view, served from cache within the
	// staleness budget. A user with no history gets an empty view, not an
	// error.
	GetMasteryModel(ctx context.Context, userID uuid.UUID) (*MasteryModelView, error)
	// GetLearningVelocity returns per-topic velocity readings plus the
	// average across topics.
	GetLearningVelocity(ctx context.Context, userID uuid.UUID) ([]TopicVelocity, float64, error)
}

type MasteryReadConfig struct {
	// StalenessBudget bounds how old a cached model view may be.
	StalenessBudget time.Duration
	StrengthFloor   float64
	WeaknessCeiling float64
}

func DefaultMasteryReadConfig() MasteryReadConfig {
	return MasteryReadConfig{
		StalenessBudget: time.Minute,
		StrengthFloor:   75,
		WeaknessCeiling: 50,
	}
}

type masteryService struct {
	models learningrepo.MasteryModelRepo
	topics learningrepo.TopicMasteryRepo
	cache  *redis.Cache
	log    *logger.Logger
	cfg    MasteryReadConfig
}

func NewMasteryService(
	models learningrepo.MasteryModelRepo,
	topics learningrepo.TopicMasteryRepo,
	cache *redis.Cache,
	baseLog *logger.Logger,
	cfg MasteryReadConfig,
) MasteryService {
	return &masteryService{
		models: models,
		topics: topics,
		cache:  cache,
		log:    baseLog.With("service", "MasteryService"),
		cfg:    cfg,
	}
}

func (s *masteryService) GetMasteryModel(ctx context.Context, userID uuid.UUID) (*MasteryModelView, error) {
	var cached MasteryModelView
	found, err := s.cache.GetModel(ctx, userID, &cached)
	if err != nil {
		s.log.Warn("model cache read failed", "user_id", userID, "error", err)
	}
	if found {
		return &cached, nil
	}

	view, err := s.buildView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetModel(ctx, userID, view, s.cfg.StalenessBudget); err != nil {
		s.log.Warn("model cache write failed", "user_id", userID, "error", err)
	}
	return view, nil
}

func (s *masteryService) buildView(ctx context.Context, userID uuid.UUID) (*MasteryModelView, error) {
	model, err := s.models.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load mastery model: %w", err)
	}
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load topic mastery: %w", err)
	}

	view := &MasteryModelView{
		UserID: userID,
		Topics: rows,
	}
	if model != nil {
		view.Version = model.Version
		view.LastUpdated = model.LastUpdated
		view.TotalActivitiesCompleted = model.TotalActivitiesCompleted
		view.Patterns = patternsFromModel(model)
	}

	// Strengths and weaknesses are views over the same rows, not separate
	// storage.
	for _, row := range rows {
		if row.MasteryLevel >= s.cfg.StrengthFloor {
			view.Strengths = append(view.Strengths, row)
		} else if row.MasteryLevel < s.cfg.WeaknessCeiling {
			view.Weaknesses = append(view.Weaknesses, row)
		}
	}
	sort.Slice(view.Strengths, func(i, j int) bool {
		return view.Strengths[i].MasteryLevel > view.Strengths[j].MasteryLevel
	})
	sort.Slice(view.Weaknesses, func(i, j int) bool {
		return view.Weaknesses[i].MasteryLevel < view.Weaknesses[j].MasteryLevel
	})
	return view, nil
}

func (s *masteryService) GetLearningVelocity(ctx context.Context, userID uuid.UUID) ([]TopicVelocity, float64, error) {
	rows, err := s.topics.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("load topic mastery: %w", err)
	}

	out := make([]TopicVelocity, 0, len(rows))
	var sum float64
	for _, row := range rows {
		out = append(out, TopicVelocity{
			Topic:    row.Topic,
			Velocity: row.LearningVelocity,
			Trend:    row.Trend,
		})
		sum += row.LearningVelocity
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })

	avg := 0.0
	if len(out) > 0 {
		avg = sum / float64(len(out))
	}
	return out, avg, nil
}
