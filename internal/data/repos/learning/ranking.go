package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type WeaknessRankingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.WeaknessRanking) (*domain.WeaknessRanking, error)
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.WeaknessRanking, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type weaknessRankingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeaknessRankingRepo(db *gorm.DB, baseLog *logger.Logger) WeaknessRankingRepo {
	return &weaknessRankingRepo{db: db, log: baseLog.With("repo", "WeaknessRankingRepo")}
}

func (r *weaknessRankingRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.WeaknessRanking) (*domain.WeaknessRanking, error) {
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

func (r *weaknessRankingRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.WeaknessRanking, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row domain.WeaknessRanking
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("computed_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *weaknessRankingRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Delete(&domain.WeaknessRanking{}).Error
}
