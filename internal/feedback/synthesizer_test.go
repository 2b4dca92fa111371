package feedback

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

func newSynth(t *testing.T) *Synthesizer {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return New(log, DefaultConfig())
}

func activity(topic string, accuracy, speed float64) *domain.ActivityRecord {
	return &domain.ActivityRecord{
		UserID:       uuid.New(),
		Topic:        topic,
		Accuracy:     accuracy,
		SpeedSeconds: speed,
		OccurredAt:   time.Now().UTC(),
	}
}

func TestOnActivityDeltas(t *testing.T) {
	s := newSynth(t)

	rec := activity("algebra", 90, 40)
	rec.CompletionRate = 100
	previous := []*domain.ActivityRecord{
		activity("algebra", 70, 60),
		activity("algebra", 80, 50),
	}

	e, err := s.OnActivity(rec, previous)
	if err != nil {
		t.Fatalf("on activity: %v", err)
	}
	if e.Kind != domain.FeedbackKindActivity || e.Topic != "algebra" {
		t.Fatalf("entry kind/topic = %s/%s", e.Kind, e.Topic)
	}

	var p activityPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	// Prior averages: accuracy 75, speed 55.
	if math.Abs(p.AccuracyDelta-15) > 1e-9 {
		t.Fatalf("accuracy delta = %v, want 15", p.AccuracyDelta)
	}
	if math.Abs(p.SpeedDelta-(-15)) > 1e-9 {
		t.Fatalf("speed delta = %v, want -15", p.SpeedDelta)
	}
	if p.PriorAttempts != 2 {
		t.Fatalf("prior attempts = %d, want 2", p.PriorAttempts)
	}
}

func TestOnActivityFirstAttempt(t *testing.T) {
	s := newSynth(t)

	e, err := s.OnActivity(activity("calculus", 60, 90), nil)
	if err != nil {
		t.Fatalf("on activity: %v", err)
	}
	var p activityPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.AccuracyDelta != 0 || p.SpeedDelta != 0 || p.PriorAttempts != 0 {
		t.Fatalf("first attempt must carry zero deltas, got %+v", p)
	}
}

func TestOnAnalysisPassImprovements(t *testing.T) {
	s := newSynth(t)
	userID := uuid.New()

	previous := []domain.Weakness{
		{Topic: "fractions", Type: domain.WeaknessTypeAccuracy, Severity: 0.6},
		{Topic: "geometry", Type: domain.WeaknessTypeSpeed, Severity: 0.4},
		{Topic: "algebra", Type: domain.WeaknessTypeRetention, Severity: 0.3},
	}
	current := []domain.Weakness{
		{Topic: "geometry", Type: domain.WeaknessTypeSpeed, Severity: 0.35},
	}

	entries, improved, err := s.OnAnalysisPass(userID, previous, current)
	if err != nil {
		t.Fatalf("on analysis pass: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if len(improved) != 2 || improved[0] != "algebra" || improved[1] != "fractions" {
		t.Fatalf("improved = %v, want sorted [algebra fractions]", improved)
	}
	for _, e := range entries {
		if e.Kind != domain.FeedbackKindImprovement {
			t.Fatalf("entry kind = %s, want improvement", e.Kind)
		}
		if e.UserID != userID {
			t.Fatalf("entry user = %s, want %s", e.UserID, userID)
		}
	}
}

func TestOnAnalysisPassNoChanges(t *testing.T) {
	s := newSynth(t)
	w := []domain.Weakness{{Topic: "a", Type: domain.WeaknessTypeAccuracy, Severity: 0.5}}

	entries, improved, err := s.OnAnalysisPass(uuid.New(), w, w)
	if err != nil {
		t.Fatalf("on analysis pass: %v", err)
	}
	if len(entries) != 0 || len(improved) != 0 {
		t.Fatalf("unchanged ranking must produce nothing, got %d entries", len(entries))
	}
}

func snapshotWith(topics map[string]aggregator.Stat) *aggregator.Snapshot {
	snap := &aggregator.Snapshot{Topics: map[string]*aggregator.TopicStats{}}
	for topic, week := range topics {
		snap.Topics[topic] = &aggregator.TopicStats{Topic: topic, Week: week, Trend: domain.TrendStable}
	}
	return snap
}

func TestDeclineFlags(t *testing.T) {
	s := newSynth(t)

	snap := snapshotWith(map[string]aggregator.Stat{
		"strong-now-weak":  {HasAccuracy: true, AverageAccuracy: 55, SampleCount: 4},
		"strong-and-fine":  {HasAccuracy: true, AverageAccuracy: 88, SampleCount: 4},
		"never-was-strong": {HasAccuracy: true, AverageAccuracy: 40, SampleCount: 4},
		"no-history":       {HasAccuracy: true, AverageAccuracy: 30, SampleCount: 4},
	})
	historical := map[string]float64{
		"strong-now-weak":  90,
		"strong-and-fine":  90,
		"never-was-strong": 50,
	}

	entries, declined, err := s.DeclineFlags(uuid.New(), snap, historical)
	if err != nil {
		t.Fatalf("decline flags: %v", err)
	}
	if len(declined) != 1 || declined[0] != "strong-now-weak" {
		t.Fatalf("declined = %v, want [strong-now-weak]", declined)
	}
	if len(entries) != 1 || entries[0].Kind != domain.FeedbackKindDecline {
		t.Fatalf("expected one decline entry, got %d", len(entries))
	}

	var p map[string]interface{}
	if err := json.Unmarshal(entries[0].Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p["historical_accuracy"].(float64) != 90 || p["recent_accuracy"].(float64) != 55 {
		t.Fatalf("payload = %v", p)
	}
}

func TestWeeklyGroups(t *testing.T) {
	s := newSynth(t)

	snap := snapshotWith(map[string]aggregator.Stat{
		"rising":   {HasAccuracy: true, AverageAccuracy: 75, SampleCount: 5},
		"stuck":    {HasAccuracy: true, AverageAccuracy: 50, SampleCount: 5},
		"inactive": {},
	})
	snap.Topics["rising"].Trend = domain.TrendImproving

	weaknesses := []domain.Weakness{
		{Topic: "stuck", Type: domain.WeaknessTypeAccuracy, Severity: 0.7},
		{Topic: "rising", Type: domain.WeaknessTypeSpeed, Severity: 0.3},
	}

	e, err := s.Weekly(uuid.New(), snap, weaknesses)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if e.Kind != domain.FeedbackKindWeekly {
		t.Fatalf("kind = %s, want weekly", e.Kind)
	}

	var p weeklyPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(p.Improving) != 1 || p.Improving[0] != "rising" {
		t.Fatalf("improving = %v, want [rising]", p.Improving)
	}
	// A weak topic that is already improving is not persistent.
	if len(p.PersistentWeak) != 1 || p.PersistentWeak[0] != "stuck" {
		t.Fatalf("persistent weak = %v, want [stuck]", p.PersistentWeak)
	}
	if len(p.RecommendedFocus) != 2 || p.RecommendedFocus[0] != "stuck" {
		t.Fatalf("recommended focus = %v, want weaknesses in rank order", p.RecommendedFocus)
	}
}

func TestOnSprintEvaluated(t *testing.T) {
	s := newSynth(t)

	targets, _ := json.Marshal([]domain.Weakness{{Topic: "math/fractions", Severity: 0.8}})
	sprint := &domain.MasterySprint{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		TargetWeaknesses: datatypes.JSON(targets),
	}
	masteries := map[string]*domain.TopicMastery{
		"math/fractions": {Topic: "math/fractions", MasteryLevel: 85},
		"math/decimals":  {Topic: "math/decimals", MasteryLevel: 60},
		"math/ratios":    {Topic: "math/ratios", MasteryLevel: 90},
		"science/cells":  {Topic: "science/cells", MasteryLevel: 20},
	}

	e, err := s.OnSprintEvaluated(sprint, domain.SprintResults{CriteriaMet: true}, masteries)
	if err != nil {
		t.Fatalf("on sprint evaluated: %v", err)
	}
	if e == nil || e.Kind != domain.FeedbackKindCelebration {
		t.Fatalf("expected a celebration entry")
	}

	var p struct {
		NextTopics []string `json:"next_topics"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	// Same namespace, lower mastery only; other namespaces excluded.
	if len(p.NextTopics) != 1 || p.NextTopics[0] != "math/decimals" {
		t.Fatalf("next topics = %v, want [math/decimals]", p.NextTopics)
	}
}

func TestOnSprintEvaluatedUnmet(t *testing.T) {
	s := newSynth(t)
	e, err := s.OnSprintEvaluated(&domain.MasterySprint{ID: uuid.New()}, domain.SprintResults{}, nil)
	if err != nil {
		t.Fatalf("on sprint evaluated: %v", err)
	}
	if e != nil {
		t.Fatalf("unmet criteria must produce no entry")
	}
}
