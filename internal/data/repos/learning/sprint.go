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

type MasterySprintRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.MasterySprint) (*domain.MasterySprint, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.MasterySprint, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*domain.MasterySprint, error)
	Update(ctx context.Context, tx *gorm.DB, row *domain.MasterySprint) error
	// ExpireOverdue flips active sprints past their expiry to expired and
	// returns how many rows changed.
	ExpireOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) (int64, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type masterySprintRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasterySprintRepo(db *gorm.DB, baseLog *logger.Logger) MasterySprintRepo {
	return &masterySprintRepo{db: db, log: baseLog.With("repo", "MasterySprintRepo")}
}

func (r *masterySprintRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.MasterySprint) (*domain.MasterySprint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *masterySprintRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.MasterySprint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row domain.MasterySprint
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *masterySprintRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*domain.MasterySprint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var results []*domain.MasterySprint
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *masterySprintRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.MasterySprint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *masterySprintRepo) ExpireOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.MasterySprint{}).
		Where("status = ? AND expires_at <= ?", domain.SprintStatusActive, asOf).
		Update("status", domain.SprintStatusExpired)
	return res.RowsAffected, res.Error
}

func (r *masterySprintRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.MasterySprint{}).Error
}
