package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/feedback"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type FeedbackService interface {
	// WeeklyFeedback synthesizes and persists the weekly summary: improving
	// topics, persistent weak spots, and recommended focus.
	WeeklyFeedback(ctx context.Context, userID uuid.UUID) (*domain.FeedbackEntry, error)
	// ListFeedback returns entries created since the given time.
	ListFeedback(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.FeedbackEntry, error)
}

type feedbackService struct {
	activities metrics.ActivityRecordRepo
	fbRepo     learningrepo.FeedbackRepo
	analysis   AnalysisService
	synth      *feedback.Synthesizer
	log        *logger.Logger
	aggCfg     aggregator.Config
}

func NewFeedbackService(
	activities metrics.ActivityRecordRepo,
	fbRepo learningrepo.FeedbackRepo,
	analysis AnalysisService,
	synth *feedback.Synthesizer,
	baseLog *logger.Logger,
	aggCfg aggregator.Config,
) FeedbackService {
	return &feedbackService{
		activities: activities,
		fbRepo:     fbRepo,
		analysis:   analysis,
		synth:      synth,
		log:        baseLog.With("service", "FeedbackService"),
		aggCfg:     aggCfg,
	}
}

func (s *feedbackService) WeeklyFeedback(ctx context.Context, userID uuid.UUID) (*domain.FeedbackEntry, error) {
	now := time.Now().UTC()
	records, err := s.activities.ListByUserSince(ctx, nil, userID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("load activity window: %w", err)
	}
	snap := aggregator.Compute(userID, records, now, s.aggCfg)

	ranking, err := s.analysis.LatestRanking(ctx, userID)
	if err != nil {
		return nil, err
	}
	var weaknesses []domain.Weakness
	if ranking != nil {
		weaknesses = ranking.Weaknesses
	}

	entry, err := s.synth.Weekly(userID, snap, weaknesses)
	if err != nil {
		return nil, fmt.Errorf("synthesize weekly feedback: %w", err)
	}
	if _, err := s.fbRepo.Create(ctx, nil, []*domain.FeedbackEntry{entry}); err != nil {
		return nil, fmt.Errorf("persist weekly feedback: %w", err)
	}
	return entry, nil
}

func (s *feedbackService) ListFeedback(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.FeedbackEntry, error) {
	return s.fbRepo.ListByUserSince(ctx, nil, userID, since)
}
