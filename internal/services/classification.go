package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/domain"
	"github.com/resys-shop/backend/internal/events"
	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/observability"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/types"
)

// SyncResult reports the minimal diff one synchronization applied.
type SyncResult struct {
	Added   []uuid.UUID
	Removed []uuid.UUID
}

// Affected returns the union of added and removed product ids — the set
// flagged for downstream regeneration.
func (r *SyncResult) Affected() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.Added)+len(r.Removed))
	out = append(out, r.Added...)
	out = append(out, r.Removed...)
	return out
}

// ClassificationService reconciles persisted classifications for one taxon
// against the rule engine's fresh match set. The operation is diff-based
// and idempotent, so at-least-once delivery of the regeneration event is
// safe: a duplicate run converges to an empty diff.
type ClassificationService interface {
	Sync(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) (*SyncResult, error)
	HandleEvent(ctx context.Context, ev events.Event)
}

type classificationService struct {
	db                 *gorm.DB
	log                *logger.Logger
	taxonRepo          repos.TaxonRepo
	classificationRepo repos.ClassificationRepo
	productRepo        repos.ProductRepo
	ruleEngine         RuleEngineService
	bus                events.Bus
}

func NewClassificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taxonRepo repos.TaxonRepo,
	classificationRepo repos.ClassificationRepo,
	productRepo repos.ProductRepo,
	ruleEngine RuleEngineService,
	bus events.Bus,
) ClassificationService {
	return &classificationService{
		db:                 db,
		log:                baseLog.With("service", "ClassificationService"),
		taxonRepo:          taxonRepo,
		classificationRepo: classificationRepo,
		productRepo:        productRepo,
		ruleEngine:         ruleEngine,
		bus:                bus,
	}
}

func (s *classificationService) Sync(ctx context.Context, tx *gorm.DB, taxonID uuid.UUID) (*SyncResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "classification.sync",
		trace.WithAttributes(attribute.String("taxon.id", taxonID.String())))
	defer span.End()

	result := &SyncResult{}
	var outbox events.Outbox

	work := func(transaction *gorm.DB) error {
		taxon, err := s.taxonRepo.GetWithRules(ctx, transaction, taxonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("classification.sync", "taxon")
			}
			return err
		}

		if !taxon.Automatic {
			return s.pruneManual(ctx, transaction, taxon, result)
		}
		return s.syncAutomatic(ctx, transaction, taxon, result)
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
			return nil, err
		}
		s.log.Error("classification sync failed", "error", err, "taxon_id", taxonID)
		return nil, domain.InternalError("classification.sync", err)
	}
	span.SetAttributes(
		attribute.Int("classification.added", len(result.Added)),
		attribute.Int("classification.removed", len(result.Removed)),
	)

	if affected := result.Affected(); len(affected) > 0 && s.bus != nil {
		outbox.Append(events.ProductsChanged{ProductIDs: affected})
		outbox.PublishAll(ctx, s.bus, s.log)
	}
	return result, nil
}

// syncAutomatic applies the symmetric difference between persisted
// membership and the fresh match set. A taxon with zero rules is cleared
// outright.
func (s *classificationService) syncAutomatic(ctx context.Context, transaction *gorm.DB, taxon *types.Taxon, result *SyncResult) error {
	existing, err := s.classificationRepo.ProductIDsForTaxon(ctx, transaction, taxon.ID)
	if err != nil {
		return err
	}

	if len(taxon.Rules) == 0 {
		if err := s.classificationRepo.DeleteAllForTaxon(ctx, transaction, taxon.ID); err != nil {
			return err
		}
		result.Removed = existing
		return s.taxonRepo.SetRegenerateFlag(ctx, transaction, taxon.ID, false)
	}

	matched, err := s.ruleEngine.FindMatchingProducts(ctx, transaction, taxon)
	if err != nil {
		return err
	}

	toAdd, toRemove := diffIDs(matched, existing)
	if len(toAdd) > 0 {
		rows := make([]*types.Classification, 0, len(toAdd))
		for _, productID := range toAdd {
			rows = append(rows, &types.Classification{ProductID: productID, TaxonID: taxon.ID})
		}
		if _, err := s.classificationRepo.Create(ctx, transaction, rows); err != nil {
			return err
		}
	}
	if err := s.classificationRepo.DeleteForTaxonAndProducts(ctx, transaction, taxon.ID, toRemove); err != nil {
		return err
	}

	result.Added = toAdd
	result.Removed = toRemove
	return s.taxonRepo.SetRegenerateFlag(ctx, transaction, taxon.ID, false)
}

// pruneManual removes classifications whose product no longer resolves.
// Editor-managed membership is otherwise left untouched.
func (s *classificationService) pruneManual(ctx context.Context, transaction *gorm.DB, taxon *types.Taxon, result *SyncResult) error {
	existing, err := s.classificationRepo.ProductIDsForTaxon(ctx, transaction, taxon.ID)
	if err != nil {
		return err
	}
	resolved, err := s.productRepo.ExistingIDs(ctx, transaction, existing)
	if err != nil {
		return err
	}
	_, dangling := diffIDs(resolved, existing)
	if err := s.classificationRepo.DeleteForTaxonAndProducts(ctx, transaction, taxon.ID, dangling); err != nil {
		return err
	}
	result.Removed = dangling
	return s.taxonRepo.SetRegenerateFlag(ctx, transaction, taxon.ID, false)
}

// HandleEvent is the single asynchronous consumer of RegenerateProducts.
// A failure for one taxon is logged and never aborts other work.
func (s *classificationService) HandleEvent(ctx context.Context, ev events.Event) {
	regen, ok := ev.(events.RegenerateProducts)
	if !ok {
		return
	}
	result, err := s.Sync(ctx, nil, regen.TaxonID)
	if err != nil {
		s.log.Error("regenerate products failed", "error", err, "taxon_id", regen.TaxonID)
		return
	}
	s.log.Info("taxon products regenerated",
		"taxon_id", regen.TaxonID, "added", len(result.Added), "removed", len(result.Removed))
}

func diffIDs(matched, existing []uuid.UUID) (toAdd, toRemove []uuid.UUID) {
	matchedSet := make(map[uuid.UUID]struct{}, len(matched))
	for _, id := range matched {
		matchedSet[id] = struct{}{}
	}
	existingSet := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}
	for _, id := range matched {
		if _, ok := existingSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range existing {
		if _, ok := matchedSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}
