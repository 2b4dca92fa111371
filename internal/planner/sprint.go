// Package planner builds constraint-satisfying practice plans: mastery
// sprints from ranked weaknesses, and goal decompositions into
// prerequisite-ordered sub-objectives.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/content"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// ErrInsufficientContent fails sprint generation closed instead of emitting a
// sprint below the exercise floor.
var ErrInsufficientContent = errors.New("insufficient exercise content")

// ErrNoWeaknesses means there is nothing to plan against.
var ErrNoWeaknesses = errors.New("no weaknesses to target")

type SprintConfig struct {
	BaseExercises int
	MinExercises  int
	MaxExercises  int

	MinDurationMinutes int
	MaxDurationMinutes int

	MaxTargetWeaknesses int
	SprintTTL           time.Duration

	ProviderRetries int
	ProviderBackoff time.Duration
}

func DefaultSprintConfig() SprintConfig {
	return SprintConfig{
		BaseExercises:       8,
		MinExercises:        5,
		MaxExercises:        20,
		MinDurationMinutes:  15,
		MaxDurationMinutes:  120,
		MaxTargetWeaknesses: 3,
		SprintTTL:           72 * time.Hour,
		ProviderRetries:     3,
		ProviderBackoff:     200 * time.Millisecond,
	}
}

// ModelView is the slice of the mastery model the planner needs.
type ModelView struct {
	Patterns  domain.LearningPatterns
	Masteries map[string]*domain.TopicMastery
}

type Generator struct {
	provider content.Provider
	log      *logger.Logger
	cfg      SprintConfig
}

func NewGenerator(provider content.Provider, baseLog *logger.Logger, cfg SprintConfig) *Generator {
	return &Generator{provider: provider, log: baseLog.With("component", "SprintGenerator"), cfg: cfg}
}

// Generate builds a sprint for the top-ranked weaknesses. Success criteria
// are derived from the user's own history, so identical topics produce
// different targets for users with different baselines.
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, weaknesses []domain.Weakness, view ModelView, now time.Time) (*domain.MasterySprint, error) {
	if len(weaknesses) == 0 {
		return nil, ErrNoWeaknesses
	}

	targets := weaknesses
	if len(targets) > g.cfg.MaxTargetWeaknesses {
		targets = targets[:g.cfg.MaxTargetWeaknesses]
	}
	top := targets[0]

	totalWanted := g.exerciseCount(top, view)
	duration := g.duration(top.Severity, view.Patterns)

	exercises, err := g.collectExercises(ctx, targets, view, totalWanted)
	if err != nil {
		return nil, err
	}
	if len(exercises) < g.cfg.MinExercises {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrInsufficientContent, len(exercises), g.cfg.MinExercises)
	}
	if len(exercises) > g.cfg.MaxExercises {
		exercises = exercises[:g.cfg.MaxExercises]
	}

	criteria := g.successCriteria(top, view)

	exRaw, err := json.Marshal(exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}
	targetRaw, err := json.Marshal(targets)
	if err != nil {
		return nil, fmt.Errorf("marshal target weaknesses: %w", err)
	}

	return &domain.MasterySprint{
		UserID:             userID,
		Status:             domain.SprintStatusActive,
		TargetWeaknesses:   datatypes.JSON(targetRaw),
		Exercises:          datatypes.JSON(exRaw),
		DurationMinutes:    duration,
		TargetAccuracy:     criteria.TargetAccuracy,
		TargetSpeedSeconds: criteria.TargetSpeedSeconds,
		MinimumCompletion:  criteria.MinimumCompletion,
		ExpiresAt:          now.Add(g.cfg.SprintTTL),
	}, nil
}

// exerciseCount = clamp(base + floor(severity*10) + complexity, min, max).
func (g *Generator) exerciseCount(top domain.Weakness, view ModelView) int {
	count := g.cfg.BaseExercises + int(math.Floor(top.Severity*10)) + complexityFactor(view.Masteries[top.Topic])
	if count < g.cfg.MinExercises {
		count = g.cfg.MinExercises
	}
	if count > g.cfg.MaxExercises {
		count = g.cfg.MaxExercises
	}
	return count
}

// complexityFactor reflects how far the user is from owning the topic.
func complexityFactor(tm *domain.TopicMastery) int {
	if tm == nil {
		return 2
	}
	switch {
	case tm.MasteryLevel < 30:
		return 2
	case tm.MasteryLevel < 60:
		return 1
	default:
		return 0
	}
}

func (g *Generator) duration(severity float64, patterns domain.LearningPatterns) int {
	optimal := patterns.OptimalSessionMinutes
	if optimal <= 0 {
		optimal = 30
	}
	minutes := int(math.Round(float64(optimal) * (0.8 + 0.8*severity)))
	if minutes < g.cfg.MinDurationMinutes {
		minutes = g.cfg.MinDurationMinutes
	}
	if minutes > g.cfg.MaxDurationMinutes {
		minutes = g.cfg.MaxDurationMinutes
	}
	return minutes
}

func (g *Generator) successCriteria(top domain.Weakness, view ModelView) domain.SuccessCriteria {
	baselineAcc := 60.0
	baselineSpeed := 60.0
	if tm := view.Masteries[top.Topic]; tm != nil {
		if tm.AverageAccuracy > 0 {
			baselineAcc = tm.AverageAccuracy
		}
		if tm.AverageSpeedSeconds > 0 {
			baselineSpeed = tm.AverageSpeedSeconds
		}
	}

	// Uplift scales with the user's own improvement rate, never a global
	// constant target.
	rate := view.Patterns.AverageImprovementRate
	uplift := clampF(3+rate*2, 3, 15)
	speedCut := clampF(0.05+rate*0.02, 0.05, 0.3)

	return domain.SuccessCriteria{
		TargetAccuracy:     clampF(baselineAcc+uplift, baselineAcc, 98),
		TargetSpeedSeconds: baselineSpeed * (1 - speedCut),
		MinimumCompletion:  clampF(70+top.Severity*20, 70, 95),
	}
}

// collectExercises fetches per-weakness blocks and sequences them: blocks by
// descending severity (input order), difficulty ascending within each block.
func (g *Generator) collectExercises(ctx context.Context, targets []domain.Weakness, view ModelView, totalWanted int) ([]domain.Exercise, error) {
	perBlock := distribute(totalWanted, weights(targets))

	var all []domain.Exercise
	for i, w := range targets {
		if perBlock[i] == 0 {
			continue
		}
		block, err := g.fetchBlock(ctx, w, view.Masteries[w.Topic], perBlock[i])
		if err != nil {
			return nil, err
		}
		sortByDifficulty(block)
		all = append(all, block...)
	}
	return all, nil
}

func (g *Generator) fetchBlock(ctx context.Context, w domain.Weakness, tm *domain.TopicMastery, count int) ([]domain.Exercise, error) {
	lo, hi := difficultyRange(tm)
	req := content.Request{
		Topic:         w.Topic,
		Type:          exerciseTypeFor(w.Type),
		MinDifficulty: lo,
		MaxDifficulty: hi,
		Count:         count,
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.ProviderRetries; attempt++ {
		if attempt > 0 {
			backoff := g.cfg.ProviderBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		exercises, err := g.provider.FetchExercises(ctx, req)
		if err == nil {
			return exercises, nil
		}
		if !errors.Is(err, content.ErrUnavailable) {
			return nil, fmt.Errorf("fetch exercises for %q: %w", w.Topic, err)
		}
		lastErr = err
		g.log.Warn("content provider unavailable, retrying", "topic", w.Topic, "attempt", attempt)
	}
	return nil, fmt.Errorf("fetch exercises for %q: %w", w.Topic, lastErr)
}

// exerciseTypeFor maps weakness type to the dominant item type: accuracy
// weaknesses get concept reinforcement, speed weaknesses timed problem
// solving, retention weaknesses recall items.
func exerciseTypeFor(weaknessType string) string {
	switch weaknessType {
	case domain.WeaknessTypeSpeed:
		return domain.ExerciseTypeProblemSolving
	case domain.WeaknessTypeRetention:
		return domain.ExerciseTypeMultipleChoice
	default:
		return domain.ExerciseTypeShortAnswer
	}
}

func difficultyRange(tm *domain.TopicMastery) (int, int) {
	lo := 1
	if tm != nil {
		lo = 1 + int(tm.MasteryLevel/25)
	}
	if lo > 7 {
		lo = 7
	}
	return lo, lo + 3
}

func weights(targets []domain.Weakness) []float64 {
	out := make([]float64, len(targets))
	for i, w := range targets {
		out[i] = math.Max(w.Severity, 0.05)
	}
	return out
}

// distribute splits total across blocks proportionally to weight, keeping
// every block non-empty and the sum exact.
func distribute(total int, w []float64) []int {
	n := len(w)
	if n == 0 {
		return nil
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	out := make([]int, n)
	assigned := 0
	for i, v := range w {
		out[i] = int(math.Floor(float64(total) * v / sum))
		if out[i] == 0 {
			out[i] = 1
		}
		assigned += out[i]
	}
	i := 0
	for assigned < total {
		out[i%n]++
		assigned++
		i++
	}
	for assigned > total {
		idx := -1
		for j := n - 1; j >= 0; j-- {
			if out[j] > 1 {
				idx = j
				break
			}
		}
		if idx < 0 {
			break
		}
		out[idx]--
		assigned--
	}
	return out
}

func sortByDifficulty(exercises []domain.Exercise) {
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].Difficulty < exercises[j].Difficulty
	})
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
