// Package scheduler drives the per-(user, topic) spaced-repetition state
// machine: growing intervals on successful recall, shrinking on failure, and
// retention-triggered forced drills that bypass the interval state.
package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	learningrepo "github.com/skillforge/skillforge-backend/internal/data/repos/learning"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Config struct {
	SuccessThreshold float64 // accuracy at or above this grows the interval

	// Growth factor: BaseGrowth + AccuracyBonus*(acc-threshold)/(100-threshold)
	// + StreakBonus*min(streak, StreakCap). Always > 1.
	BaseGrowth    float64
	AccuracyBonus float64
	StreakBonus   float64
	StreakCap     int

	FloorDays float64
	CapDays   float64

	// Dormancy: no due drills while mastery holds at or above
	// DormantMasteryLevel for DormantAfterDays.
	DormantMasteryLevel float64
	DormantAfterDays    int
}

func DefaultConfig() Config {
	return Config{
		SuccessThreshold:    80,
		BaseGrowth:          1.3,
		AccuracyBonus:       0.7,
		StreakBonus:         0.1,
		StreakCap:           5,
		FloorDays:           1,
		CapDays:             60,
		DormantMasteryLevel: 85,
		DormantAfterDays:    21,
	}
}

// Drill is a scheduled recall request. Forced drills come from the retention
// override and do not consume the interval state.
type Drill struct {
	Topic  string    `json:"topic"`
	DueAt  time.Time `json:"due_at"`
	Forced bool      `json:"forced"`
}

// NextState applies one drill outcome to an entry. It is pure: the caller
// persists the returned value.
func NextState(entry domain.RecallScheduleEntry, accuracy float64, completedAt time.Time, cfg Config) domain.RecallScheduleEntry {
	if entry.CurrentIntervalDays <= 0 {
		entry.CurrentIntervalDays = cfg.FloorDays
	}

	if accuracy >= cfg.SuccessThreshold {
		span := 100 - cfg.SuccessThreshold
		bonus := 0.0
		if span > 0 {
			bonus = cfg.AccuracyBonus * (accuracy - cfg.SuccessThreshold) / span
		}
		streak := entry.ConsecutiveSuccesses
		if streak > cfg.StreakCap {
			streak = cfg.StreakCap
		}
		growth := cfg.BaseGrowth + bonus + cfg.StreakBonus*float64(streak)
		entry.CurrentIntervalDays = math.Min(entry.CurrentIntervalDays*growth, cfg.CapDays)
		entry.ConsecutiveSuccesses++
	} else {
		entry.CurrentIntervalDays = math.Max(entry.CurrentIntervalDays/2, cfg.FloorDays)
		entry.ConsecutiveSuccesses = 0
	}

	entry.LastAccuracy = accuracy
	entry.NextDueAt = completedAt.Add(time.Duration(entry.CurrentIntervalDays * 24 * float64(time.Hour)))
	return entry
}

type Scheduler struct {
	repo learningrepo.RecallScheduleRepo
	log  *logger.Logger
	cfg  Config
}

func New(repo learningrepo.RecallScheduleRepo, baseLog *logger.Logger, cfg Config) *Scheduler {
	return &Scheduler{repo: repo, log: baseLog.With("component", "Scheduler"), cfg: cfg}
}

// RecordDrillOutcome transitions the topic's interval state after a drill.
// First exposure starts at a 1-day interval.
func (s *Scheduler) RecordDrillOutcome(ctx context.Context, userID uuid.UUID, topic string, accuracy float64, completedAt time.Time) (*domain.RecallScheduleEntry, error) {
	entry, err := s.repo.GetByUserIDAndTopic(ctx, nil, userID, topic)
	if err != nil {
		return nil, fmt.Errorf("load schedule entry: %w", err)
	}
	if entry == nil {
		entry = &domain.RecallScheduleEntry{
			UserID:              userID,
			Topic:               topic,
			CurrentIntervalDays: s.cfg.FloorDays,
		}
	}

	next := NextState(*entry, accuracy, completedAt, s.cfg)
	next.ID = entry.ID
	if err := s.repo.Upsert(ctx, nil, &next); err != nil {
		return nil, fmt.Errorf("persist schedule entry: %w", err)
	}
	return &next, nil
}

// DueDrills returns all drills due as of asOf plus forced drills for topics
// whose measured retention fell below the floor. Forced drills are emitted
// regardless of interval state and leave that state untouched.
func (s *Scheduler) DueDrills(ctx context.Context, userID uuid.UUID, asOf time.Time, lowRetentionTopics []string) ([]Drill, error) {
	dormantBefore := asOf.AddDate(0, 0, -s.cfg.DormantAfterDays)
	due, err := s.repo.ListDue(ctx, nil, userID, asOf, dormantBefore)
	if err != nil {
		return nil, fmt.Errorf("list due entries: %w", err)
	}

	drills := make([]Drill, 0, len(due)+len(lowRetentionTopics))
	scheduled := map[string]bool{}
	for _, entry := range due {
		drills = append(drills, Drill{Topic: entry.Topic, DueAt: entry.NextDueAt})
		scheduled[entry.Topic] = true
	}

	forced := append([]string(nil), lowRetentionTopics...)
	sort.Strings(forced)
	for _, topic := range forced {
		if scheduled[topic] {
			continue
		}
		drills = append(drills, Drill{Topic: topic, DueAt: asOf, Forced: true})
		scheduled[topic] = true
	}
	return drills, nil
}

// ObserveMastery maintains dormancy tracking from the latest mastery level.
func (s *Scheduler) ObserveMastery(ctx context.Context, userID uuid.UUID, topic string, masteryLevel float64, asOf time.Time) error {
	entry, err := s.repo.GetByUserIDAndTopic(ctx, nil, userID, topic)
	if err != nil {
		return fmt.Errorf("load schedule entry: %w", err)
	}
	if entry == nil {
		return nil
	}

	if masteryLevel >= s.cfg.DormantMasteryLevel {
		if entry.DormantSince == nil {
			t := asOf
			entry.DormantSince = &t
			return s.repo.Upsert(ctx, nil, entry)
		}
		return nil
	}
	if entry.DormantSince != nil {
		entry.DormantSince = nil
		return s.repo.Upsert(ctx, nil, entry)
	}
	return nil
}
