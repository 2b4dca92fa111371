// Package mastery owns the authoritative per-user mastery model: the 30-day
// rolling recompute, velocity estimation, and the optimistic-concurrency
// write path.
package mastery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/data/repos/metrics"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// ErrConflict is surfaced once the bounded optimistic retry loop exhausts.
var ErrConflict = errors.New("mastery model update conflict")

type Engine struct {
	models  learningrepo.MasteryModelRepo
	topics  learningrepo.TopicMasteryRepo
	metrics metrics.ActivityRecordRepo
	log     *logger.Logger
	cfg     Config
}

func NewEngine(models learningrepo.MasteryModelRepo, topics learningrepo.TopicMasteryRepo, metricsRepo metrics.ActivityRecordRepo, baseLog *logger.Logger, cfg Config) *Engine {
	return &Engine{
		models:  models,
		topics:  topics,
		metrics: metricsRepo,
		log:     baseLog.With("component", "MasteryEngine"),
		cfg:     cfg,
	}
}

// Apply folds newly ingested records into the user's mastery model. Records
// are reordered by occurrence timestamp before applying, so out-of-order
// arrival (offline replay) cannot reorder the model's history. The write is
// conditional on the model version read at the start of the attempt; on
// conflict the whole computation re-runs against the fresh model.
func (e *Engine) Apply(ctx context.Context, userID uuid.UUID, records []*domain.ActivityRecord) (*domain.MasteryModel, error) {
	if len(records) == 0 {
		return e.models.GetByUserID(ctx, nil, userID)
	}

	sorted := make([]*domain.ActivityRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	affected := map[string]bool{}
	for _, rec := range sorted {
		affected[rec.Topic] = true
	}
	now := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		model, err := e.models.GetByUserID(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("load mastery model: %w", err)
		}
		if model == nil {
			model, err = e.models.Create(ctx, nil, &domain.MasteryModel{UserID: userID, Version: 1, LastUpdated: now})
			if err != nil {
				return nil, fmt.Errorf("create mastery model: %w", err)
			}
		}
		expected := model.Version

		rows, velocities, err := e.recomputeTopics(ctx, userID, affected, now)
		if err != nil {
			return nil, err
		}

		total, err := e.metrics.CountByUser(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("count activities: %w", err)
		}
		model.TotalActivitiesCompleted = int(total)

		patterns, err := e.refreshPatterns(model, sorted, velocities)
		if err != nil {
			return nil, err
		}
		model.Patterns = patterns

		if err := e.topics.Upsert(ctx, nil, rows); err != nil {
			return nil, fmt.Errorf("upsert topic mastery: %w", err)
		}

		err = e.models.UpdateConditional(ctx, nil, model, expected)
		if err == nil {
			return model, nil
		}
		if !errors.Is(err, learningrepo.ErrVersionConflict) {
			return nil, fmt.Errorf("write mastery model: %w", err)
		}
		lastErr = err
		e.log.Debug("mastery model version conflict, retrying", "user_id", userID, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (e *Engine) recomputeTopics(ctx context.Context, userID uuid.UUID, affected map[string]bool, now time.Time) ([]*domain.TopicMastery, map[string]float64, error) {
	topics := make([]string, 0, len(affected))
	for t := range affected {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	existing, err := e.topics.GetByUserIDAndTopics(ctx, nil, userID, topics)
	if err != nil {
		return nil, nil, fmt.Errorf("load topic mastery: %w", err)
	}
	byTopic := map[string]*domain.TopicMastery{}
	for _, row := range existing {
		byTopic[row.Topic] = row
	}

	windowStart := now.AddDate(0, 0, -e.cfg.WindowDays)
	velocities := map[string]float64{}

	rows := make([]*domain.TopicMastery, 0, len(topics))
	for _, topic := range topics {
		recs, err := e.metrics.ListByUserTopicSince(ctx, nil, userID, topic, windowStart)
		if err != nil {
			return nil, nil, fmt.Errorf("load topic records: %w", err)
		}
		comp, ok := ComputeTopic(recs, now, e.cfg)
		if !ok {
			continue
		}

		row := byTopic[topic]
		if row == nil {
			row = &domain.TopicMastery{UserID: userID, Topic: topic}
		}

		history := appendHistory(row.History, domain.MasteryPoint{Level: comp.MasteryLevel, TakenAt: now}, e.cfg.HistorySize)
		slope, trend := Velocity(history, e.cfg.VelocityEpsilon)

		row.MasteryLevel = comp.MasteryLevel
		row.Confidence = comp.Confidence
		lastPracticed := comp.LastPracticed
		row.LastPracticed = &lastPracticed
		row.PracticeCount = comp.PracticeCount
		row.AverageAccuracy = comp.AverageAccuracy
		row.AverageSpeedSeconds = comp.AverageSpeedSeconds
		row.RetentionRate = comp.RetentionRate
		row.LearningVelocity = slope
		row.Trend = trend

		raw, err := json.Marshal(history)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal mastery history: %w", err)
		}
		row.History = datatypes.JSON(raw)

		velocities[topic] = slope
		rows = append(rows, row)
	}

	return rows, velocities, nil
}

func (e *Engine) refreshPatterns(model *domain.MasteryModel, records []*domain.ActivityRecord, velocities map[string]float64) (datatypes.JSON, error) {
	var patterns domain.LearningPatterns
	if len(model.Patterns) > 0 {
		if err := json.Unmarshal(model.Patterns, &patterns); err != nil {
			return nil, fmt.Errorf("unmarshal learning patterns: %w", err)
		}
	}
	if patterns.OptimalSessionMinutes == 0 {
		patterns.OptimalSessionMinutes = 30
	}

	if len(velocities) > 0 {
		var sum float64
		for _, v := range velocities {
			sum += v
		}
		patterns.AverageImprovementRate = sum / float64(len(velocities))
	}

	if hour, ok := peakHour(records); ok {
		patterns.PeakPerformanceHour = hour
	}

	seen := map[string]bool{}
	for _, t := range patterns.PreferredContentTypes {
		seen[t] = true
	}
	for _, rec := range records {
		if rec.ContentType != "" && !seen[rec.ContentType] {
			patterns.PreferredContentTypes = append(patterns.PreferredContentTypes, rec.ContentType)
			seen[rec.ContentType] = true
		}
	}

	raw, err := json.Marshal(patterns)
	if err != nil {
		return nil, fmt.Errorf("marshal learning patterns: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// peakHour is the hour of day with the best mean accuracy in this batch.
func peakHour(records []*domain.ActivityRecord) (int, bool) {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, rec := range records {
		h := rec.OccurredAt.Hour()
		sums[h] += rec.Accuracy
		counts[h]++
	}
	best, bestAcc, found := 0, -1.0, false
	for h, c := range counts {
		acc := sums[h] / float64(c)
		if acc > bestAcc || (acc == bestAcc && h < best) {
			best, bestAcc, found = h, acc, true
		}
	}
	return best, found
}

func appendHistory(raw datatypes.JSON, point domain.MasteryPoint, size int) []domain.MasteryPoint {
	var history []domain.MasteryPoint
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &history)
	}
	history = append(history, point)
	if size > 0 && len(history) > size {
		history = history[len(history)-size:]
	}
	return history
}
