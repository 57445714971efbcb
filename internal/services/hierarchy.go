package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/domain"
	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/observability"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/taxonomy"
)

// HierarchyService sequences Validate → BuildNestedSets →
// RegeneratePermalinks → Persist as one transactional unit. It runs after
// every structural mutation of a taxonomy; rule and automation-flag changes
// never come through here.
type HierarchyService interface {
	Rebuild(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID) error
}

type hierarchyService struct {
	db        *gorm.DB
	log       *logger.Logger
	taxonRepo repos.TaxonRepo
}

func NewHierarchyService(db *gorm.DB, baseLog *logger.Logger, taxonRepo repos.TaxonRepo) HierarchyService {
	return &hierarchyService{
		db:        db,
		log:       baseLog.With("service", "HierarchyService"),
		taxonRepo: taxonRepo,
	}
}

func (s *hierarchyService) Rebuild(ctx context.Context, tx *gorm.DB, taxonomyID uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "hierarchy.rebuild",
		trace.WithAttributes(attribute.String("taxonomy.id", taxonomyID.String())))
	defer span.End()

	work := func(transaction *gorm.DB) error {
		nodes, err := s.taxonRepo.GetByTaxonomyID(ctx, transaction, taxonomyID)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}

		// Validation must pass before numbering: running nested set
		// assignment over a cyclic graph would loop or corrupt ranges.
		if err := taxonomy.Validate(nodes); err != nil {
			return mapHierarchyError(err)
		}
		if err := taxonomy.BuildNestedSets(nodes); err != nil {
			return mapHierarchyError(err)
		}
		taxonomy.RegeneratePermalinks(nodes)

		return s.taxonRepo.UpdateHierarchy(ctx, transaction, nodes)
	}

	var err error
	if tx != nil {
		err = work(tx)
	} else {
		err = s.db.Transaction(work)
	}
	if err != nil {
		span.RecordError(err)
		var domErr *domain.Error
		if errors.As(err, &domErr) {
			return err
		}
		s.log.Error("hierarchy rebuild failed", "error", err, "taxonomy_id", taxonomyID)
		return domain.InternalError("hierarchy.rebuild", err)
	}
	return nil
}

func mapHierarchyError(err error) error {
	switch {
	case errors.Is(err, taxonomy.ErrInvalidParent):
		return domain.NewError(domain.CodeValidation, "hierarchy.rebuild", domain.ReasonInvalidParent, err)
	case errors.Is(err, taxonomy.ErrCycleDetected):
		return domain.NewError(domain.CodeValidation, "hierarchy.rebuild", domain.ReasonCycleDetected, err)
	case errors.Is(err, taxonomy.ErrRootConflict):
		return domain.NewError(domain.CodeConflict, "hierarchy.rebuild", domain.ReasonRootConflict, err)
	case errors.Is(err, taxonomy.ErrNoRoot):
		return domain.NewError(domain.CodeNotFound, "hierarchy.rebuild", domain.ReasonNoRootTaxon, err)
	}
	return err
}
