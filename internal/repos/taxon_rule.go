package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/types"
)

type TaxonRuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ruleRows []*types.TaxonRule) ([]*types.TaxonRule, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TaxonRule, error)
	GetByTaxonIDs(ctx context.Context, tx *gorm.DB, taxonIDs []uuid.UUID) ([]*types.TaxonRule, error)
	Update(ctx context.Context, tx *gorm.DB, rule *types.TaxonRule) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type taxonRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonRuleRepo(db *gorm.DB, baseLog *logger.Logger) TaxonRuleRepo {
	repoLog := baseLog.With("repo", "TaxonRuleRepo")
	return &taxonRuleRepo{db: db, log: repoLog}
}

func (r *taxonRuleRepo) Create(ctx context.Context, tx *gorm.DB, ruleRows []*types.TaxonRule) ([]*types.TaxonRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ruleRows) == 0 {
		return []*types.TaxonRule{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&ruleRows).Error; err != nil {
		return nil, err
	}
	return ruleRows, nil
}

func (r *taxonRuleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TaxonRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TaxonRule
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonRuleRepo) GetByTaxonIDs(ctx context.Context, tx *gorm.DB, taxonIDs []uuid.UUID) ([]*types.TaxonRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TaxonRule
	if len(taxonIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("taxon_id IN ?", taxonIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonRuleRepo) Update(ctx context.Context, tx *gorm.DB, rule *types.TaxonRule) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(rule).Error
}

func (r *taxonRuleRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(&types.TaxonRule{}, "id = ?", id).Error
}
