package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	WeaknessTypeAccuracy  = "accuracy"
	WeaknessTypeSpeed     = "speed"
	WeaknessTypeRetention = "retention"
)

// Weakness is a transient scoring result; it is persisted only inside a
// WeaknessRanking snapshot.
type Weakness struct {
	Topic       string    `json:"topic"`
	Type        string    `json:"type"`
	Severity    float64   `json:"severity"`
	ImpactScore float64   `json:"impact_score"`
	DetectedAt  time.Time `json:"detected_at"`
}

// WeaknessRanking is the persisted artifact of one analysis pass. ID doubles
// as the pass id. Stale marks rankings served past the analysis deadline.
type WeaknessRanking struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Weaknesses datatypes.JSON `gorm:"type:jsonb;column:weaknesses;not null" json:"weaknesses"`
	Stale      bool           `gorm:"column:stale;not null;default:false" json:"stale"`
	ComputedAt time.Time      `gorm:"column:computed_at;not null;index" json:"computed_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeaknessRanking) TableName() string { return "weakness_ranking" }
