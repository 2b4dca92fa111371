package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityTypeDrill            = "drill"
	ActivityTypeSprint           = "sprint"
	ActivityTypeExercise         = "exercise"
	ActivityTypeCodebaseAnalysis = "codebase_analysis"
)

func ValidActivityType(t string) bool {
	switch t {
	case ActivityTypeDrill, ActivityTypeSprint, ActivityTypeExercise, ActivityTypeCodebaseAnalysis:
		return true
	}
	return false
}

// ActivityRecord is immutable once accepted; OccurredAt is the client-side
// completion time, CreatedAt the server receive time.
type ActivityRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_user_occurred,priority:1" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ActivityID uuid.UUID `gorm:"type:uuid;column:activity_id;not null;index" json:"activity_id"`

	Type        string `gorm:"column:type;not null;index" json:"type"`
	Topic       string `gorm:"column:topic;not null;index" json:"topic"`
	ContentType string `gorm:"column:content_type" json:"content_type,omitempty"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index:idx_activity_user_occurred,priority:2" json:"occurred_at"`

	SpeedSeconds   float64 `gorm:"column:speed_seconds;not null" json:"speed_seconds"`
	Accuracy       float64 `gorm:"column:accuracy;not null" json:"accuracy"`
	CompletionRate float64 `gorm:"column:completion_rate;not null" json:"completion_rate"`
	Difficulty     *int    `gorm:"column:difficulty" json:"difficulty,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ActivityRecord) TableName() string { return "activity_record" }
