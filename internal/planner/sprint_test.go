package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/content"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// fakeProvider serves generated exercises, optionally failing the first
// few calls or capping what it can deliver.
type fakeProvider struct {
	failures int
	maxPer   int
	calls    int
	requests []content.Request
}

func (f *fakeProvider) FetchExercises(_ context.Context, req content.Request) ([]domain.Exercise, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.failures > 0 {
		f.failures--
		return nil, content.ErrUnavailable
	}

	count := req.Count
	if f.maxPer > 0 && count > f.maxPer {
		count = f.maxPer
	}
	out := make([]domain.Exercise, 0, count)
	for i := 0; i < count; i++ {
		// Descending difficulty on purpose; the planner must re-sort.
		out = append(out, domain.Exercise{
			ID:         uuid.New(),
			Type:       req.Type,
			Topic:      req.Topic,
			Difficulty: req.MaxDifficulty - i%(req.MaxDifficulty-req.MinDifficulty+1),
		})
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func fastConfig() SprintConfig {
	cfg := DefaultSprintConfig()
	cfg.ProviderBackoff = time.Millisecond
	return cfg
}

func weakness(topic string, severity float64) domain.Weakness {
	return domain.Weakness{
		Topic:       topic,
		Type:        domain.WeaknessTypeAccuracy,
		Severity:    severity,
		ImpactScore: severity,
		DetectedAt:  time.Now().UTC(),
	}
}

func TestGenerateBounds(t *testing.T) {
	gen := NewGenerator(&fakeProvider{}, testLogger(t), fastConfig())
	now := time.Now().UTC()

	sprint, err := gen.Generate(context.Background(), uuid.New(), []domain.Weakness{
		weakness("go/concurrency", 1.0),
		weakness("go/interfaces", 0.9),
		weakness("go/generics", 0.8),
		weakness("go/errors", 0.7), // beyond MaxTargetWeaknesses, must be cut
	}, ModelView{}, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var exercises []domain.Exercise
	if err := json.Unmarshal(sprint.Exercises, &exercises); err != nil {
		t.Fatalf("decode exercises: %v", err)
	}
	if len(exercises) < 5 || len(exercises) > 20 {
		t.Fatalf("exercise count = %d, want within [5,20]", len(exercises))
	}
	if sprint.DurationMinutes < 15 || sprint.DurationMinutes > 120 {
		t.Fatalf("duration = %d, want within [15,120]", sprint.DurationMinutes)
	}

	var targets []domain.Weakness
	if err := json.Unmarshal(sprint.TargetWeaknesses, &targets); err != nil {
		t.Fatalf("decode targets: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("targets = %d, want 3", len(targets))
	}
	for _, ex := range exercises {
		if ex.Topic == "go/errors" {
			t.Fatalf("fourth weakness must not contribute exercises")
		}
	}
	if !sprint.ExpiresAt.After(now) {
		t.Fatalf("sprint must carry a future expiry")
	}
}

func TestGenerateFailsClosedOnThinContent(t *testing.T) {
	// One exercise per topic, three topics: 3 < MinExercises.
	gen := NewGenerator(&fakeProvider{maxPer: 1}, testLogger(t), fastConfig())

	_, err := gen.Generate(context.Background(), uuid.New(), []domain.Weakness{
		weakness("a", 0.9),
		weakness("b", 0.8),
		weakness("c", 0.7),
	}, ModelView{}, time.Now().UTC())
	if !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("err = %v, want ErrInsufficientContent", err)
	}
}

func TestGenerateRetriesProvider(t *testing.T) {
	provider := &fakeProvider{failures: 2}
	gen := NewGenerator(provider, testLogger(t), fastConfig())

	_, err := gen.Generate(context.Background(), uuid.New(),
		[]domain.Weakness{weakness("t", 0.9)}, ModelView{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("generate after transient failures: %v", err)
	}

	exhausted := &fakeProvider{failures: 10}
	gen = NewGenerator(exhausted, testLogger(t), fastConfig())
	_, err = gen.Generate(context.Background(), uuid.New(),
		[]domain.Weakness{weakness("t", 0.9)}, ModelView{}, time.Now().UTC())
	if !errors.Is(err, content.ErrUnavailable) {
		t.Fatalf("err = %v, want wrapped ErrUnavailable after retries", err)
	}
}

func TestGenerateSequencing(t *testing.T) {
	gen := NewGenerator(&fakeProvider{}, testLogger(t), fastConfig())

	sprint, err := gen.Generate(context.Background(), uuid.New(), []domain.Weakness{
		weakness("hard", 1.0),
		weakness("soft", 0.4),
	}, ModelView{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var exercises []domain.Exercise
	if err := json.Unmarshal(sprint.Exercises, &exercises); err != nil {
		t.Fatalf("decode exercises: %v", err)
	}

	// Highest-severity block first, difficulty ascending inside each block.
	seenSoft := false
	lastDifficulty := 0
	for _, ex := range exercises {
		if ex.Topic == "soft" {
			seenSoft = true
			lastDifficulty = 0
		}
		if ex.Topic == "hard" && seenSoft {
			t.Fatalf("hard block must precede soft block")
		}
		if ex.Difficulty < lastDifficulty {
			t.Fatalf("difficulty must ascend within a block")
		}
		lastDifficulty = ex.Difficulty
	}
	if !seenSoft {
		t.Fatalf("second weakness must contribute exercises")
	}
}

func TestSuccessCriteriaPersonalized(t *testing.T) {
	gen := NewGenerator(&fakeProvider{}, testLogger(t), fastConfig())
	now := time.Now().UTC()
	w := []domain.Weakness{weakness("t", 0.8)}

	slow := ModelView{
		Patterns: domain.LearningPatterns{AverageImprovementRate: 0},
		Masteries: map[string]*domain.TopicMastery{
			"t": {Topic: "t", AverageAccuracy: 60, AverageSpeedSeconds: 100},
		},
	}
	fast := ModelView{
		Patterns: domain.LearningPatterns{AverageImprovementRate: 4},
		Masteries: map[string]*domain.TopicMastery{
			"t": {Topic: "t", AverageAccuracy: 60, AverageSpeedSeconds: 100},
		},
	}

	slowSprint, err := gen.Generate(context.Background(), uuid.New(), w, slow, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	fastSprint, err := gen.Generate(context.Background(), uuid.New(), w, fast, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if fastSprint.TargetAccuracy <= slowSprint.TargetAccuracy {
		t.Fatalf("faster improver must get a higher accuracy target: %v vs %v",
			fastSprint.TargetAccuracy, slowSprint.TargetAccuracy)
	}
	if fastSprint.TargetSpeedSeconds >= slowSprint.TargetSpeedSeconds {
		t.Fatalf("faster improver must get a tighter speed target: %v vs %v",
			fastSprint.TargetSpeedSeconds, slowSprint.TargetSpeedSeconds)
	}
	if slowSprint.MinimumCompletion < 70 || slowSprint.MinimumCompletion > 95 {
		t.Fatalf("minimum completion = %v, want within [70,95]", slowSprint.MinimumCompletion)
	}
}

func TestGenerateNoWeaknesses(t *testing.T) {
	gen := NewGenerator(&fakeProvider{}, testLogger(t), fastConfig())
	_, err := gen.Generate(context.Background(), uuid.New(), nil, ModelView{}, time.Now().UTC())
	if !errors.Is(err, ErrNoWeaknesses) {
		t.Fatalf("err = %v, want ErrNoWeaknesses", err)
	}
}
