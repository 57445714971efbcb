package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/types"
)

type TaxonomyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, taxonomies []*types.Taxonomy) ([]*types.Taxonomy, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Taxonomy, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Taxonomy, error)
	Update(ctx context.Context, tx *gorm.DB, taxonomy *types.Taxonomy) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error)
	CountTaxons(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type taxonomyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonomyRepo(db *gorm.DB, baseLog *logger.Logger) TaxonomyRepo {
	repoLog := baseLog.With("repo", "TaxonomyRepo")
	return &taxonomyRepo{db: db, log: repoLog}
}

func (r *taxonomyRepo) Create(ctx context.Context, tx *gorm.DB, taxonomies []*types.Taxonomy) ([]*types.Taxonomy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(taxonomies) == 0 {
		return []*types.Taxonomy{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&taxonomies).Error; err != nil {
		return nil, err
	}
	return taxonomies, nil
}

func (r *taxonomyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Taxonomy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Taxonomy
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

func (r *taxonomyRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Taxonomy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Taxonomy
	if err := transaction.WithContext(ctx).
		Order("position ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonomyRepo) Update(ctx context.Context, tx *gorm.DB, taxonomy *types.Taxonomy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(taxonomy).Error
}

func (r *taxonomyRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(&types.Taxonomy{}, "id = ?", id).Error
}

func (r *taxonomyRepo) NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	q := transaction.WithContext(ctx).
		Model(&types.Taxonomy{}).
		Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *taxonomyRepo) CountTaxons(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Taxon{}).
		Where("taxonomy_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
