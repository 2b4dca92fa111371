package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type TopicMasteryRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.TopicMastery, error)
	GetByUserIDAndTopics(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topics []string) ([]*domain.TopicMastery, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*domain.TopicMastery) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type topicMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicMasteryRepo(db *gorm.DB, baseLog *logger.Logger) TopicMasteryRepo {
	return &topicMasteryRepo{db: db, log: baseLog.With("repo", "TopicMasteryRepo")}
}

func (r *topicMasteryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.TopicMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TopicMastery
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicMasteryRepo) GetByUserIDAndTopics(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topics []string) ([]*domain.TopicMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TopicMastery
	if len(topics) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic IN ?", userID, topics).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*domain.TopicMastery) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "topic"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mastery_level", "confidence", "last_practiced", "practice_count",
				"average_accuracy", "average_speed_seconds", "retention_rate",
				"learning_velocity", "trend", "history", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *topicMasteryRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.TopicMastery{}).Error
}
