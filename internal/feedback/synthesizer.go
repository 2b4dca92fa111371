// Package feedback turns aggregator/detector/mastery deltas into user-facing
// feedback entries: immediate per-activity deltas, improvement and decline
// flags, weekly summaries, and sprint celebrations.
package feedback

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillforge/skillforge-backend/internal/analysis/aggregator"
	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Config struct {
	StrongAccuracy float64 // historical accuracy above this marks a strong topic
	WeakAccuracy   float64 // recent accuracy below this flags a decline
	FocusTopics    int     // recommended-focus group size in the weekly summary
}

func DefaultConfig() Config {
	return Config{StrongAccuracy: 80, WeakAccuracy: 70, FocusTopics: 3}
}

type Synthesizer struct {
	log *logger.Logger
	cfg Config
}

func New(baseLog *logger.Logger, cfg Config) *Synthesizer {
	return &Synthesizer{log: baseLog.With("component", "FeedbackSynthesizer"), cfg: cfg}
}

type activityPayload struct {
	Topic          string  `json:"topic"`
	Accuracy       float64 `json:"accuracy"`
	SpeedSeconds   float64 `json:"speed_seconds"`
	AccuracyDelta  float64 `json:"accuracy_delta"`
	SpeedDelta     float64 `json:"speed_delta"`
	PriorAttempts  int     `json:"prior_attempts"`
	CompletionRate float64 `json:"completion_rate"`
}

// OnActivity emits the immediate feedback for one completed activity: the raw
// metrics plus the delta against previous attempts on the same topic.
func (s *Synthesizer) OnActivity(rec *domain.ActivityRecord, previous []*domain.ActivityRecord) (*domain.FeedbackEntry, error) {
	p := activityPayload{
		Topic:          rec.Topic,
		Accuracy:       rec.Accuracy,
		SpeedSeconds:   rec.SpeedSeconds,
		CompletionRate: rec.CompletionRate,
		PriorAttempts:  len(previous),
	}
	if len(previous) > 0 {
		var accSum, spdSum float64
		for _, prev := range previous {
			accSum += prev.Accuracy
			spdSum += prev.SpeedSeconds
		}
		n := float64(len(previous))
		p.AccuracyDelta = rec.Accuracy - accSum/n
		p.SpeedDelta = rec.SpeedSeconds - spdSum/n
	}
	return entry(rec.UserID, domain.FeedbackKindActivity, rec.Topic, p)
}

// OnAnalysisPass compares consecutive weakness rankings. Topics that left the
// weakness set get an improvement acknowledgment and are reported back for
// down-weighting on the detector's next pass.
func (s *Synthesizer) OnAnalysisPass(userID uuid.UUID, previous, current []domain.Weakness) ([]*domain.FeedbackEntry, []string, error) {
	still := map[string]bool{}
	for _, w := range current {
		still[w.Topic] = true
	}

	var entries []*domain.FeedbackEntry
	var improved []string
	for _, w := range previous {
		if still[w.Topic] {
			continue
		}
		e, err := entry(userID, domain.FeedbackKindImprovement, w.Topic, map[string]interface{}{
			"topic":        w.Topic,
			"was_type":     w.Type,
			"was_severity": w.Severity,
			"acknowledged": true,
		})
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
		improved = append(improved, w.Topic)
	}
	sort.Strings(improved)
	return entries, improved, nil
}

// DeclineFlags finds previously strong topics whose recent accuracy dropped
// below the weak threshold. Returned topics also need scheduler
// reinforcement via the forced-drill override.
func (s *Synthesizer) DeclineFlags(userID uuid.UUID, snapshot *aggregator.Snapshot, historicalAccuracy map[string]float64) ([]*domain.FeedbackEntry, []string, error) {
	var entries []*domain.FeedbackEntry
	var declined []string

	topics := make([]string, 0, len(snapshot.Topics))
	for t := range snapshot.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		stats := snapshot.Topics[topic]
		hist, known := historicalAccuracy[topic]
		if !known || hist <= s.cfg.StrongAccuracy {
			continue
		}
		week := stats.Week
		if !week.HasAccuracy || week.AverageAccuracy >= s.cfg.WeakAccuracy {
			continue
		}
		e, err := entry(userID, domain.FeedbackKindDecline, topic, map[string]interface{}{
			"topic":               topic,
			"historical_accuracy": hist,
			"recent_accuracy":     week.AverageAccuracy,
		})
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
		declined = append(declined, topic)
	}
	return entries, declined, nil
}

type weeklyPayload struct {
	Improving        []string `json:"improving"`
	PersistentWeak   []string `json:"persistent_weak"`
	RecommendedFocus []string `json:"recommended_focus"`
}

// Weekly aggregates the last 7 days into topic groups.
func (s *Synthesizer) Weekly(userID uuid.UUID, snapshot *aggregator.Snapshot, weaknesses []domain.Weakness) (*domain.FeedbackEntry, error) {
	var p weeklyPayload

	weak := map[string]bool{}
	for _, w := range weaknesses {
		weak[w.Topic] = true
	}

	topics := make([]string, 0, len(snapshot.Topics))
	for t := range snapshot.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		stats := snapshot.Topics[topic]
		if stats.Week.SampleCount == 0 {
			continue
		}
		if stats.Trend == domain.TrendImproving {
			p.Improving = append(p.Improving, topic)
		}
		if weak[topic] && stats.Trend != domain.TrendImproving {
			p.PersistentWeak = append(p.PersistentWeak, topic)
		}
	}
	for i, w := range weaknesses {
		if i >= s.cfg.FocusTopics {
			break
		}
		p.RecommendedFocus = append(p.RecommendedFocus, w.Topic)
	}

	return entry(userID, domain.FeedbackKindWeekly, "", p)
}

// OnSprintEvaluated celebrates a satisfied sprint and suggests next-level
// topics: namespace-adjacent topics where the user's mastery is still below
// the one just demonstrated.
func (s *Synthesizer) OnSprintEvaluated(sprint *domain.MasterySprint, results domain.SprintResults, masteries map[string]*domain.TopicMastery) (*domain.FeedbackEntry, error) {
	if !results.CriteriaMet {
		return nil, nil
	}

	var targets []domain.Weakness
	if len(sprint.TargetWeaknesses) > 0 {
		if err := json.Unmarshal(sprint.TargetWeaknesses, &targets); err != nil {
			return nil, fmt.Errorf("unmarshal target weaknesses: %w", err)
		}
	}
	mastered := ""
	if len(targets) > 0 {
		mastered = targets[0].Topic
	}

	return entry(sprint.UserID, domain.FeedbackKindCelebration, mastered, map[string]interface{}{
		"sprint_id":   sprint.ID,
		"topic":       mastered,
		"results":     results,
		"next_topics": nextLevelTopics(mastered, masteries),
	})
}

// nextLevelTopics picks topics adjacent to the mastered one (shared
// namespace prefix) with lower mastery, i.e. the harder neighbors.
func nextLevelTopics(mastered string, masteries map[string]*domain.TopicMastery) []string {
	if mastered == "" {
		return nil
	}
	prefix := topicNamespace(mastered)
	base := masteries[mastered]

	var out []string
	for topic, tm := range masteries {
		if topic == mastered || topicNamespace(topic) != prefix {
			continue
		}
		if base == nil || tm.MasteryLevel < base.MasteryLevel {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func topicNamespace(topic string) string {
	if i := strings.LastIndex(topic, "/"); i > 0 {
		return topic[:i]
	}
	if i := strings.Index(topic, " "); i > 0 {
		return topic[:i]
	}
	return topic
}

func entry(userID uuid.UUID, kind, topic string, payload interface{}) (*domain.FeedbackEntry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal feedback payload: %w", err)
	}
	return &domain.FeedbackEntry{
		UserID:    userID,
		Kind:      kind,
		Topic:     topic,
		Payload:   datatypes.JSON(raw),
		CreatedAt: time.Now().UTC(),
	}, nil
}
