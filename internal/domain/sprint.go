package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SprintStatusActive    = "active"
	SprintStatusCompleted = "completed"
	SprintStatusExpired   = "expired"
	SprintStatusAbandoned = "abandoned"
)

const (
	ExerciseTypeMultipleChoice = "multiple_choice"
	ExerciseTypeShortAnswer    = "short_answer"
	ExerciseTypeProblemSolving = "problem_solving"
	ExerciseTypeCodeChallenge  = "code_challenge"
)

// Exercise is immutable once attached to a sprint; it lives inside the
// sprint's jsonb exercise list.
type Exercise struct {
	ID               uuid.UUID `json:"id"`
	Type             string    `json:"type"`
	Topic            string    `json:"topic"`
	Difficulty       int       `json:"difficulty"`
	ContentRef       string    `json:"content_ref"`
	EstimatedMinutes int       `json:"estimated_minutes"`
}

type SuccessCriteria struct {
	TargetAccuracy     float64 `json:"target_accuracy"`
	TargetSpeedSeconds float64 `json:"target_speed_seconds"`
	MinimumCompletion  float64 `json:"minimum_completion"`
}

type SprintResults struct {
	Accuracy       float64   `json:"accuracy"`
	SpeedSeconds   float64   `json:"speed_seconds"`
	CompletionRate float64   `json:"completion_rate"`
	CriteriaMet    bool      `json:"criteria_met"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

type MasterySprint struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Status string `gorm:"column:status;not null;index" json:"status"`

	// Snapshot of the weaknesses the sprint targets, not live references.
	TargetWeaknesses datatypes.JSON `gorm:"type:jsonb;column:target_weaknesses" json:"target_weaknesses"`
	Exercises        datatypes.JSON `gorm:"type:jsonb;column:exercises;not null" json:"exercises"`

	DurationMinutes int `gorm:"column:duration_minutes;not null" json:"duration_minutes"`

	TargetAccuracy     float64 `gorm:"column:target_accuracy;not null" json:"target_accuracy"`
	TargetSpeedSeconds float64 `gorm:"column:target_speed_seconds;not null" json:"target_speed_seconds"`
	MinimumCompletion  float64 `gorm:"column:minimum_completion;not null" json:"minimum_completion"`

	ExpiresAt time.Time      `gorm:"column:expires_at;not null;index" json:"expires_at"`
	Results   datatypes.JSON `gorm:"type:jsonb;column:results" json:"results,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MasterySprint) TableName() string { return "mastery_sprint" }

func (s *MasterySprint) Criteria() SuccessCriteria {
	return SuccessCriteria{
		TargetAccuracy:     s.TargetAccuracy,
		TargetSpeedSeconds: s.TargetSpeedSeconds,
		MinimumCompletion:  s.MinimumCompletion,
	}
}
