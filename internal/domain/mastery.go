package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// LearningPatterns is stored as jsonb on the mastery model row.
type LearningPatterns struct {
	OptimalSessionMinutes  int      `json:"optimal_session_minutes"`
	PeakPerformanceHour    int      `json:"peak_performance_hour"`
	PreferredContentTypes  []string `json:"preferred_content_types,omitempty"`
	AverageImprovementRate float64  `json:"average_improvement_rate"`
}

// MasteryModel is the authoritative per-user profile head. Version is the
// optimistic-concurrency token: every successful write increments it, and
// writers condition on the version they read.
type MasteryModel struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Version     int64     `gorm:"column:version;not null;default:1" json:"version"`
	LastUpdated time.Time `gorm:"column:last_updated;not null;default:now()" json:"last_updated"`

	Patterns                 datatypes.JSON `gorm:"type:jsonb;column:patterns" json:"patterns"`
	TotalActivitiesCompleted int            `gorm:"column:total_activities_completed;not null;default:0" json:"total_activities_completed"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MasteryModel) TableName() string { return "mastery_model" }

// MasteryPoint is one historical masteryLevel observation, kept on the
// TopicMastery row for velocity estimation.
type MasteryPoint struct {
	Level   float64   `json:"level"`
	TakenAt time.Time `json:"taken_at"`
}

type TopicMastery struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_mastery_user_topic,unique,priority:1" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topic  string    `gorm:"column:topic;not null;index:idx_topic_mastery_user_topic,unique,priority:2" json:"topic"`

	MasteryLevel float64 `gorm:"column:mastery_level;not null;default:0" json:"mastery_level"`
	Confidence   float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	LastPracticed *time.Time `gorm:"column:last_practiced;index" json:"last_practiced,omitempty"`
	PracticeCount int        `gorm:"column:practice_count;not null;default:0" json:"practice_count"`

	AverageAccuracy     float64 `gorm:"column:average_accuracy;not null;default:0" json:"average_accuracy"`
	AverageSpeedSeconds float64 `gorm:"column:average_speed_seconds;not null;default:0" json:"average_speed_seconds"`
	RetentionRate       float64 `gorm:"column:retention_rate;not null;default:0" json:"retention_rate"`

	LearningVelocity float64 `gorm:"column:learning_velocity;not null;default:0" json:"learning_velocity"`
	Trend            string  `gorm:"column:trend;not null;default:stable" json:"trend"`

	// Recent masteryLevel observations, newest last.
	History datatypes.JSON `gorm:"type:jsonb;column:history" json:"history,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TopicMastery) TableName() string { return "topic_mastery" }
