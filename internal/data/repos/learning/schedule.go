package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type RecallScheduleRepo interface {
	GetByUserIDAndTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*domain.RecallScheduleEntry, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.RecallScheduleEntry, error)
	// ListDue returns non-dormant entries due at or before asOf. An entry is
	// dormant when its DormantSince predates dormantBefore.
	ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, dormantBefore time.Time) ([]*domain.RecallScheduleEntry, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *domain.RecallScheduleEntry) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type recallScheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecallScheduleRepo(db *gorm.DB, baseLog *logger.Logger) RecallScheduleRepo {
	return &recallScheduleRepo{db: db, log: baseLog.With("repo", "RecallScheduleRepo")}
}

func (r *recallScheduleRepo) GetByUserIDAndTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*domain.RecallScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row domain.RecallScheduleEntry
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *recallScheduleRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.RecallScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.RecallScheduleEntry
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recallScheduleRepo) ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, dormantBefore time.Time) ([]*domain.RecallScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.RecallScheduleEntry
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND next_due_at <= ? AND (dormant_since IS NULL OR dormant_since > ?)", userID, asOf, dormantBefore).
		Order("next_due_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recallScheduleRepo) Upsert(ctx context.Context, tx *gorm.DB, row *domain.RecallScheduleEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "topic"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"next_due_at", "current_interval_days", "consecutive_successes",
				"last_accuracy", "dormant_since", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *recallScheduleRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.RecallScheduleEntry{}).Error
}
