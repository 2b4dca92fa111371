package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// ErrVersionConflict is returned by conditional mastery-model writes when the
// stored version no longer matches the version the writer read.
var ErrVersionConflict = errors.New("mastery model version conflict")

type MasteryModelRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.MasteryModel, error)
	Create(ctx context.Context, tx *gorm.DB, row *domain.MasteryModel) (*domain.MasteryModel, error)
	// UpdateConditional persists row only if the stored version still equals
	// expectedVersion, bumping the version in the same statement.
	UpdateConditional(ctx context.Context, tx *gorm.DB, row *domain.MasteryModel, expectedVersion int64) error
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type masteryModelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryModelRepo(db *gorm.DB, baseLog *logger.Logger) MasteryModelRepo {
	return &masteryModelRepo{db: db, log: baseLog.With("repo", "MasteryModelRepo")}
}

func (r *masteryModelRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.MasteryModel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row domain.MasteryModel
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *masteryModelRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.MasteryModel) (*domain.MasteryModel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}
	if row.Version == 0 {
		row.Version = 1
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *masteryModelRepo) UpdateConditional(ctx context.Context, tx *gorm.DB, row *domain.MasteryModel, expectedVersion int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	res := transaction.WithContext(ctx).
		Model(&domain.MasteryModel{}).
		Where("user_id = ? AND version = ?", row.UserID, expectedVersion).
		Updates(map[string]interface{}{
			"version":                    expectedVersion + 1,
			"last_updated":               time.Now().UTC(),
			"patterns":                   row.Patterns,
			"total_activities_completed": row.TotalActivitiesCompleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	row.Version = expectedVersion + 1
	return nil
}

func (r *masteryModelRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.MasteryModel{}).Error
}
