package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/types"
)

type ClassificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, classifications []*types.Classification) ([]*types.Classification, error)
	ProductIDsForTaxon(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) ([]uuid.UUID, error)
	DeleteForTaxonAndProducts(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID, productIDs []uuid.UUID) error
	DeleteAllForTaxon(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) error
}

type classificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	repoLog := baseLog.With("repo", "ClassificationRepo")
	return &classificationRepo{db: db, log: repoLog}
}

func (r *classificationRepo) Create(ctx context.Context, tx *gorm.DB, classifications []*types.Classification) ([]*types.Classification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(classifications) == 0 {
		return []*types.Classification{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&classifications).Error; err != nil {
		return nil, err
	}
	return classifications, nil
}

func (r *classificationRepo) ProductIDsForTaxon(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Classification{}).
		Where("taxon_id = ?", taxonID).
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *classificationRepo) DeleteForTaxonAndProducts(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID, productIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(productIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("taxon_id = ? AND product_id IN ?", taxonID, productIDs).
		Delete(&types.Classification{}).Error
}

func (r *classificationRepo) DeleteAllForTaxon(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("taxon_id = ?", taxonID).
		Delete(&types.Classification{}).Error
}
