package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/analysis/detector"
	"github.com/skillforge/skillforge-backend/internal/clients/redis"
	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type AnalysisService interface {
	// AnalyzeWeaknesses runs a full analysis pass within the configured
	// deadline. If the pass misses the deadline the last completed ranking
	// is returned instead, marked stale.
	AnalyzeWeaknesses(ctx context.Context, userID uuid.UUID, importance map[string]float64) (*RankingResult, error)
	// LatestRanking returns the most recent persisted ranking without
	// recomputing.
	LatestRanking(ctx context.Context, userID uuid.UUID) (*RankingResult, error)
}

type AnalysisConfig struct {
	Deadline time.Duration
	// DownweightWindow bounds how long an acknowledged improvement keeps a
	// topic downweighted in subsequent passes.
	DownweightWindow time.Duration

	Aggregator aggregator.Config
	Detector   detector.Config
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Deadline:         5 * time.Second,
		DownweightWindow: 7 * 24 * time.Hour,
		Aggregator:       aggregator.DefaultConfig(),
		Detector:         detector.DefaultConfig(),
	}
}

type analysisService struct {
	activities metrics.ActivityRecordRepo
	rankings   learningrepo.WeaknessRankingRepo
	feedback   learningrepo.FeedbackRepo
	cache      *redis.Cache
	log        *logger.Logger
	cfg        AnalysisConfig
}

func NewAnalysisService(
	activities metrics.ActivityRecordRepo,
	rankings learningrepo.WeaknessRankingRepo,
	feedbackRepo learningrepo.FeedbackRepo,
	cache *redis.Cache,
	baseLog *logger.Logger,
	cfg AnalysisConfig,
) AnalysisService {
	return &analysisService{
		activities: activities,
		rankings:   rankings,
		feedback:   feedbackRepo,
		cache:      cache,
		log:        baseLog.With("service", "AnalysisService"),
		cfg:        cfg,
	}
}

func (s *analysisService) AnalyzeWeaknesses(ctx context.Context, userID uuid.UUID, importance map[string]float64) (*RankingResult, error) {
	passCtx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	result, err := s.runPass(passCtx, userID, importance)
	if err == nil {
		return result, nil
	}
	if passCtx.Err() == nil {
		return nil, err
	}

	// Deadline missed. Serve the last completed ranking, flagged stale, so
	// callers degrade instead of blocking.
	s.log.Warn("analysis pass missed deadline, serving stale ranking", "user_id", userID, "error", err)
	stale, fallbackErr := s.LatestRanking(ctx, userID)
	if fallbackErr != nil {
		return nil, fmt.Errorf("analysis pass timed out and no prior ranking available: %w", err)
	}
	if stale == nil {
		return nil, fmt.Errorf("analysis pass timed out with no prior ranking: %w", err)
	}
	stale.Stale = true
	return stale, nil
}

func (s *analysisService) runPass(ctx context.Context, userID uuid.UUID, importance map[string]float64) (*RankingResult, error) {
	now := time.Now().UTC()
	monthStart := now.AddDate(0, 0, -30)

	var (
		records   []*domain.ActivityRecord
		total     int64
		recentsFb []*domain.FeedbackEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.activities.ListByUserSince(gctx, nil, userID, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.activities.CountByUser(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recentsFb, err = s.feedback.ListByUserSince(gctx, nil, userID, now.Add(-s.cfg.DownweightWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load analysis inputs: %w", err)
	}

	snapshot := aggregator.Compute(userID, records, now, s.cfg.Aggregator)

	counts := make(map[string]int, len(snapshot.Topics))
	for topic, ts := range snapshot.Topics {
		counts[topic] = ts.Month.SampleCount
	}

	downweight := map[string]bool{}
	for _, fb := range recentsFb {
		if fb.Kind == domain.FeedbackKindImprovement && fb.Topic != "" {
			downweight[fb.Topic] = true
		}
	}

	weaknesses := detector.Detect(detector.Input{
		Snapshot:        snapshot,
		PracticeCounts:  counts,
		TotalActivities: int(total),
		Importance:      importance,
		Downweight:      downweight,
	}, now, s.cfg.Detector)

	payload, err := json.Marshal(weaknesses)
	if err != nil {
		return nil, fmt.Errorf("encode weaknesses: %w", err)
	}
	row, err := s.rankings.Create(ctx, nil, &domain.WeaknessRanking{
		UserID:     userID,
		Weaknesses: payload,
		ComputedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("persist ranking: %w", err)
	}

	result := &RankingResult{
		PassID:     row.ID,
		UserID:     userID,
		Weaknesses: weaknesses,
		ComputedAt: now,
	}

	// Best effort: the cache copy only backs the stale-fallback path.
	if err := s.cache.SetLastRanking(ctx, userID, result); err != nil {
		s.log.Warn("failed to cache ranking", "user_id", userID, "error", err)
	}
	return result, nil
}

func (s *analysisService) LatestRanking(ctx context.Context, userID uuid.UUID) (*RankingResult, error) {
	var cached RankingResult
	found, err := s.cache.GetLastRanking(ctx, userID, &cached)
	if err != nil {
		s.log.Warn("ranking cache read failed", "user_id", userID, "error", err)
	}
	if found {
		return &cached, nil
	}

	row, err := s.rankings.GetLatestByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load latest ranking: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return rankingFromRow(row)
}

func rankingFromRow(row *domain.WeaknessRanking) (*RankingResult, error) {
	var weaknesses []domain.Weakness
	if len(row.Weaknesses) > 0 {
		if err := json.Unmarshal(row.Weaknesses, &weaknesses); err != nil {
			return nil, fmt.Errorf("decode ranking row: %w", err)
		}
	}
	return &RankingResult{
		PassID:     row.ID,
		UserID:     row.UserID,
		Weaknesses: weaknesses,
		Stale:      row.Stale,
		ComputedAt: row.ComputedAt,
	}, nil
}
