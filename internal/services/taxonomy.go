package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/domain"
	"github.com/resys-shop/backend/internal/events"
	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/types"
)

type CreateTaxonomyInput struct {
	Name         string
	Presentation string
	Position     int
}

type UpdateTaxonomyInput struct {
	Name         *string
	Presentation *string
	Position     *int
}

// TaxonomyService owns taxonomy lifecycle. Creation seeds the root taxon so
// the single-root invariant holds from birth; deletion is rejected while
// any non-root taxon remains.
type TaxonomyService interface {
	Create(ctx context.Context, in CreateTaxonomyInput) (*types.Taxonomy, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Taxonomy, error)
	List(ctx context.Context) ([]*types.Taxonomy, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateTaxonomyInput) (*types.Taxonomy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taxonomyService struct {
	db           *gorm.DB
	log          *logger.Logger
	taxonomyRepo repos.TaxonomyRepo
	taxonRepo    repos.TaxonRepo
	hierarchy    HierarchyService
	bus          events.Bus
}

func NewTaxonomyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taxonomyRepo repos.TaxonomyRepo,
	taxonRepo repos.TaxonRepo,
	hierarchy HierarchyService,
	bus events.Bus,
) TaxonomyService {
	return &taxonomyService{
		db:           db,
		log:          baseLog.With("service", "TaxonomyService"),
		taxonomyRepo: taxonomyRepo,
		taxonRepo:    taxonRepo,
		hierarchy:    hierarchy,
		bus:          bus,
	}
}

func (s *taxonomyService) Create(ctx context.Context, in CreateTaxonomyInput) (*types.Taxonomy, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ValidationError("taxonomy.create", domain.ReasonNameRequired)
	}
	exists, err := s.taxonomyRepo.NameExists(ctx, nil, name, uuid.Nil)
	if err != nil {
		return nil, domain.InternalError("taxonomy.create", err)
	}
	if exists {
		return nil, domain.ConflictError("taxonomy.create", domain.ReasonDuplicateName)
	}

	taxonomy := &types.Taxonomy{
		Name:         name,
		Presentation: in.Presentation,
		Position:     in.Position,
	}
	var root *types.Taxon
	var outbox events.Outbox

	err = s.db.Transaction(func(transaction *gorm.DB) error {
		if _, err := s.taxonomyRepo.Create(ctx, transaction, []*types.Taxonomy{taxonomy}); err != nil {
			return err
		}
		root = &types.Taxon{
			TaxonomyID:       taxonomy.ID,
			Name:             name,
			Presentation:     in.Presentation,
			RulesMatchPolicy: types.RulesMatchAll,
			SortOrder:        types.SortOrderManual,
		}
		if _, err := s.taxonRepo.Create(ctx, transaction, []*types.Taxon{root}); err != nil {
			return err
		}
		return s.hierarchy.Rebuild(ctx, transaction, taxonomy.ID)
	})
	if err != nil {
		var domErr *domain.Error
		if errors.As(err, &domErr) {
			return nil, err
		}
		s.log.Error("taxonomy create failed", "error", err, "name", name)
		return nil, domain.InternalError("taxonomy.create", err)
	}

	if s.bus != nil {
		outbox.Append(events.TaxonCreated{TaxonID: root.ID, TaxonomyID: taxonomy.ID})
		outbox.PublishAll(ctx, s.bus, s.log)
	}
	return taxonomy, nil
}

func (s *taxonomyService) GetByID(ctx context.Context, id uuid.UUID) (*types.Taxonomy, error) {
	results, err := s.taxonomyRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, domain.InternalError("taxonomy.get", err)
	}
	if len(results) == 0 {
		return nil, domain.NotFoundError("taxonomy.get", "taxonomy")
	}
	return results[0], nil
}

func (s *taxonomyService) List(ctx context.Context) ([]*types.Taxonomy, error) {
	results, err := s.taxonomyRepo.List(ctx, nil)
	if err != nil {
		return nil, domain.InternalError("taxonomy.list", err)
	}
	return results, nil
}

func (s *taxonomyService) Update(ctx context.Context, id uuid.UUID, in UpdateTaxonomyInput) (*types.Taxonomy, error) {
	taxonomy, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ValidationError("taxonomy.update", domain.ReasonNameRequired)
		}
		exists, err := s.taxonomyRepo.NameExists(ctx, nil, name, id)
		if err != nil {
			return nil, domain.InternalError("taxonomy.update", err)
		}
		if exists {
			return nil, domain.ConflictError("taxonomy.update", domain.ReasonDuplicateName)
		}
		taxonomy.Name = name
	}
	if in.Presentation != nil {
		taxonomy.Presentation = *in.Presentation
	}
	if in.Position != nil {
		taxonomy.Position = *in.Position
	}
	if err := s.taxonomyRepo.Update(ctx, nil, taxonomy); err != nil {
		s.log.Error("taxonomy update failed", "error", err, "taxonomy_id", id)
		return nil, domain.InternalError("taxonomy.update", err)
	}
	return taxonomy, nil
}

func (s *taxonomyService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.taxonomyRepo.CountTaxons(ctx, nil, id)
	if err != nil {
		return domain.InternalError("taxonomy.delete", err)
	}
	// The lone root is tolerated; anything more must be dismantled first.
	if count > 1 {
		return domain.ConflictError("taxonomy.delete", domain.ReasonHasTaxons)
	}

	err = s.db.Transaction(func(transaction *gorm.DB) error {
		nodes, err := s.taxonRepo.GetByTaxonomyID(ctx, transaction, id)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if err := s.taxonRepo.Delete(ctx, transaction, n.ID); err != nil {
				return err
			}
		}
		return s.taxonomyRepo.Delete(ctx, transaction, id)
	})
	if err != nil {
		s.log.Error("taxonomy delete failed", "error", err, "taxonomy_id", id)
		return domain.InternalError("taxonomy.delete", err)
	}
	return nil
}
