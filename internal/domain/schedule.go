package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecallScheduleEntry is the per-(user, topic) spaced-repetition state.
// Entries are never deleted outside account erasure; dormancy only stops
// them from producing due drills.
type RecallScheduleEntry struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_recall_user_topic,unique,priority:1" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topic  string    `gorm:"column:topic;not null;index:idx_recall_user_topic,unique,priority:2" json:"topic"`

	NextDueAt            time.Time `gorm:"column:next_due_at;not null;index" json:"next_due_at"`
	CurrentIntervalDays  float64   `gorm:"column:current_interval_days;not null;default:1" json:"current_interval_days"`
	ConsecutiveSuccesses int       `gorm:"column:consecutive_successes;not null;default:0" json:"consecutive_successes"`
	LastAccuracy         float64   `gorm:"column:last_accuracy;not null;default:0" json:"last_accuracy"`

	// DormantSince records when the topic's mastery first held at or above
	// the dormancy threshold. The entry stops producing due drills only once
	// that has been sustained for the configured period.
	DormantSince *time.Time `gorm:"column:dormant_since" json:"dormant_since,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RecallScheduleEntry) TableName() string { return "recall_schedule_entry" }
