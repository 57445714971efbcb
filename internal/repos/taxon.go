package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/types"
)

type TaxonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, taxons []*types.Taxon) ([]*types.Taxon, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Taxon, error)
	GetWithRules(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Taxon, error)
	GetByTaxonomyID(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID) ([]*types.Taxon, error)
	Update(ctx context.Context, tx *gorm.DB, taxon *types.Taxon) error
	UpdateHierarchy(ctx context.Context, tx *gorm.DB, taxons []*types.Taxon) error
	SetRegenerateFlag(ctx context.Context, tx *gorm.DB, id uuid.UUID, marked bool) error
	CountChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) (int64, error)
	NameExistsInTaxonomy(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type taxonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonRepo(db *gorm.DB, baseLog *logger.Logger) TaxonRepo {
	repoLog := baseLog.With("repo", "TaxonRepo")
	return &taxonRepo{db: db, log: repoLog}
}

func (r *taxonRepo) Create(ctx context.Context, tx *gorm.DB, taxons []*types.Taxon) ([]*types.Taxon, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(taxons) == 0 {
		return []*types.Taxon{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&taxons).Error; err != nil {
		return nil, err
	}
	return taxons, nil
}

func (r *taxonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Taxon, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Taxon
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

func (r *taxonRepo) GetWithRules(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Taxon, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Taxon
	if err := transaction.WithContext(ctx).
		Preload("Rules").
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *taxonRepo) GetByTaxonomyID(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID) ([]*types.Taxon, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Taxon
	if err := transaction.WithContext(ctx).
		Where("taxonomy_id = ?", taxonomyID).
		Order("lft ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonRepo) Update(ctx context.Context, tx *gorm.DB, taxon *types.Taxon) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(taxon).Error
}

// UpdateHierarchy batch-writes only the rebuild-derived columns. Invoked
// once per rebuild inside the orchestrator's transaction.
func (r *taxonRepo) UpdateHierarchy(ctx context.Context, tx *gorm.DB, taxons []*types.Taxon) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	for _, t := range taxons {
		err := transaction.WithContext(ctx).
			Model(&types.Taxon{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{
				"lft":         t.Lft,
				"rgt":         t.Rgt,
				"depth":       t.Depth,
				"permalink":   t.Permalink,
				"pretty_name": t.PrettyName,
				"position":    t.Position,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *taxonRepo) SetRegenerateFlag(ctx context.Context, tx *gorm.DB, id uuid.UUID, marked bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Taxon{}).
		Where("id = ?", id).
		Update("marked_for_regenerate_taxon_products", marked).Error
}

func (r *taxonRepo) CountChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Taxon{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *taxonRepo) NameExistsInTaxonomy(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	q := transaction.WithContext(ctx).
		Model(&types.Taxon{}).
		Where("taxonomy_id = ? AND name = ?", taxonomyID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *taxonRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(&types.Taxon{}, "id = ?", id).Error
}
