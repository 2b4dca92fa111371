package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// ActivityRecordRepo is the metric-store adapter: append-only writes and
// time-range queries ordered by occurrence time.
type ActivityRecordRepo interface {
	Append(ctx context.Context, tx *gorm.DB, rows []*domain.ActivityRecord) ([]*domain.ActivityRecord, error)
	ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*domain.ActivityRecord, error)
	ListByUserTopicSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, since time.Time) ([]*domain.ActivityRecord, error)
	ListRecentByTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, limit int) ([]*domain.ActivityRecord, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type activityRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRecordRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRecordRepo {
	return &activityRecordRepo{db: db, log: baseLog.With("repo", "ActivityRecordRepo")}
}

func (r *activityRecordRepo) Append(ctx context.Context, tx *gorm.DB, rows []*domain.ActivityRecord) ([]*domain.ActivityRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*domain.ActivityRecord{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRecordRepo) ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*domain.ActivityRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.ActivityRecord
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Order("occurred_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRecordRepo) ListByUserTopicSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, since time.Time) ([]*domain.ActivityRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.ActivityRecord
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic = ? AND occurred_at >= ?", userID, topic, since).
		Order("occurred_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRecordRepo) ListRecentByTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, limit int) ([]*domain.ActivityRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		return []*domain.ActivityRecord{}, nil
	}

	// Fetched newest-first, returned oldest-first.
	var newest []*domain.ActivityRecord
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&newest).Error; err != nil {
		return nil, err
	}

	results := make([]*domain.ActivityRecord, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		results = append(results, newest[i])
	}
	return results, nil
}

func (r *activityRecordRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.ActivityRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *activityRecordRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.ActivityRecord{}).Error
}
