package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	FeedbackKindActivity    = "activity"
	FeedbackKindImprovement = "improvement"
	FeedbackKindDecline     = "decline"
	FeedbackKindWeekly      = "weekly"
	FeedbackKindCelebration = "sprint_celebration"
)

type FeedbackEntry struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Kind    string         `gorm:"column:kind;not null;index" json:"kind"`
	Topic   string         `gorm:"column:topic;index" json:"topic,omitempty"`
	Payload datatypes.JSON `gorm:"type:jsonb;column:payload;not null" json:"payload"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FeedbackEntry) TableName() string { return "feedback_entry" }
