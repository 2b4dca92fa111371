// Package services wires the analytical core together: ingestion, analysis,
// planning, scheduling, feedback, and erasure, each behind a narrow
// interface consumed by the HTTP layer.
package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge/skillforge-backend/internal/domain"
)

// ValidationError carries field-level detail for rejected input. Nothing
// that fails validation is ever persisted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RankingResult is one weakness-analysis pass. Stale marks results served
// from a previous pass because the current one missed its deadline.
type RankingResult struct {
	PassID     uuid.UUID         `json:"pass_id"`
	UserID     uuid.UUID         `json:"user_id"`
	Weaknesses []domain.Weakness `json:"weaknesses"`
	Stale      bool              `json:"stale"`
	ComputedAt time.Time         `json:"computed_at"`
}

// MasteryModelView is the read-side projection of the mastery model:
// strengths and weaknesses are filtered views over the topic set, not
// separate storage.
type MasteryModelView struct {
	UserID                   uuid.UUID                `json:"user_id"`
	Version                  int64                    `json:"version"`
	LastUpdated              time.Time                `json:"last_updated"`
	TotalActivitiesCompleted int                      `json:"total_activities_completed"`
	Patterns                 domain.LearningPatterns  `json:"patterns"`
	Topics                   []*domain.TopicMastery   `json:"topics"`
	Strengths                []*domain.TopicMastery   `json:"strengths"`
	Weaknesses               []*domain.TopicMastery   `json:"weaknesses"`
}

// TopicVelocity is one topic's learning-velocity reading.
type TopicVelocity struct {
	Topic    string  `json:"topic"`
	Velocity float64 `json:"velocity"`
	Trend    string  `json:"trend"`
}

// patternsFromModel decodes the jsonb patterns column, tolerating a missing
// model or empty column.
func patternsFromModel(m *domain.MasteryModel) domain.LearningPatterns {
	var p domain.LearningPatterns
	if m == nil || len(m.Patterns) == 0 {
		return p
	}
	_ = json.Unmarshal(m.Patterns, &p)
	return p
}
