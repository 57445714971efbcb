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
	"github.com/resys-shop/backend/internal/query"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/rules"
	"github.com/resys-shop/backend/internal/types"
)

type CreateTaxonInput struct {
	TaxonomyID       uuid.UUID
	ParentID         *uuid.UUID
	Name             string
	Presentation     string
	Description      string
	Position         int
	HideFromNav      bool
	Automatic        bool
	RulesMatchPolicy string
	SortOrder        string
}

type UpdateTaxonInput struct {
	Name             *string
	Presentation     *string
	Description      *string
	Position         *int
	HideFromNav      *bool
	Automatic        *bool
	RulesMatchPolicy *string
	SortOrder        *string
	// ParentID moves the taxon when ParentSet is true.
	ParentID  *uuid.UUID
	ParentSet bool
}

type RuleInput struct {
	Type         string
	Value        string
	MatchPolicy  string
	PropertyName *string
}

// TaxonService owns taxon structural commands and rule management.
// Structural mutations trigger a hierarchy rebuild inside the same
// transaction; rule and automation changes instead mark the taxon dirty
// and emit RegenerateProducts after commit.
type TaxonService interface {
	Create(ctx context.Context, in CreateTaxonInput) (*types.Taxon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Taxon, error)
	ListByTaxonomy(ctx context.Context, taxonomyID uuid.UUID) ([]*types.Taxon, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateTaxonInput) (*types.Taxon, error)
	Move(ctx context.Context, id uuid.UUID, newParentID uuid.UUID, position int) (*types.Taxon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRule(ctx context.Context, taxonID uuid.UUID, in RuleInput) (*types.TaxonRule, error)
	RemoveRule(ctx context.Context, taxonID, ruleID uuid.UUID) error
}

type taxonService struct {
	db        *gorm.DB
	log       *logger.Logger
	taxonRepo repos.TaxonRepo
	ruleRepo  repos.TaxonRuleRepo
	hierarchy HierarchyService
	bus       events.Bus
}

func NewTaxonService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taxonRepo repos.TaxonRepo,
	ruleRepo repos.TaxonRuleRepo,
	hierarchy HierarchyService,
	bus events.Bus,
) TaxonService {
	return &taxonService{
		db:        db,
		log:       baseLog.With("service", "TaxonService"),
		taxonRepo: taxonRepo,
		ruleRepo:  ruleRepo,
		hierarchy: hierarchy,
		bus:       bus,
	}
}

func (s *taxonService) Create(ctx context.Context, in CreateTaxonInput) (*types.Taxon, error) {
	const op = "taxon.create"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ValidationError(op, domain.ReasonNameRequired)
	}

	nodes, err := s.taxonRepo.GetByTaxonomyID(ctx, nil, in.TaxonomyID)
	if err != nil {
		return nil, domain.InternalError(op, err)
	}
	if len(nodes) == 0 {
		return nil, domain.NotFoundError(op, "taxonomy")
	}

	parentID := in.ParentID
	if parentID == nil {
		// New taxons default under the root.
		for _, n := range nodes {
			if n.IsRoot() {
				id := n.ID
				parentID = &id
				break
			}
		}
		if parentID == nil {
			return nil, domain.NotFoundError(op, domain.ReasonNoRootTaxon)
		}
	} else {
		parent := findNode(nodes, *parentID)
		if parent == nil {
			return nil, domain.ValidationError(op, domain.ReasonInvalidParent)
		}
		if parent.TaxonomyID != in.TaxonomyID {
			return nil, domain.ValidationError(op, domain.ReasonParentTaxonomyMismatch)
		}
	}

	exists, err := s.taxonRepo.NameExistsInTaxonomy(ctx, nil, in.TaxonomyID, name, uuid.Nil)
	if err != nil {
		return nil, domain.InternalError(op, err)
	}
	if exists {
		return nil, domain.ConflictError(op, domain.ReasonDuplicateName)
	}

	policy := in.RulesMatchPolicy
	if policy == "" {
		policy = types.RulesMatchAll
	}
	if !types.ValidMatchPolicy(policy) {
		return nil, domain.ValidationError(op, domain.ReasonInvalidMatchPolicy)
	}
	sortOrder := in.SortOrder
	if sortOrder == "" {
		sortOrder = types.SortOrderManual
	}
	if !types.ValidSortOrder(sortOrder) {
		return nil, domain.ValidationError(op, "invalid_sort_order")
	}

	// Coordinates start at zero; the rebuild inside the transaction
	// assigns the real ones.
	taxon := &types.Taxon{
		TaxonomyID:       in.TaxonomyID,
		ParentID:         parentID,
		Name:             name,
		Presentation:     in.Presentation,
		Description:      in.Description,
		Position:         in.Position,
		HideFromNav:      in.HideFromNav,
		Automatic:        in.Automatic,
		RulesMatchPolicy: policy,
		SortOrder:        sortOrder,
	}

	var outbox events.Outbox
	err = s.db.Transaction(func(transaction *gorm.DB) error {
		if _, err := s.taxonRepo.Create(ctx, transaction, []*types.Taxon{taxon}); err != nil {
			return err
		}
		return s.hierarchy.Rebuild(ctx, transaction, in.TaxonomyID)
	})
	if err != nil {
		return nil, s.commandError(op, taxon.TaxonomyID, err)
	}

	outbox.Append(events.TaxonCreated{TaxonID: taxon.ID, TaxonomyID: taxon.TaxonomyID})
	if taxon.Automatic {
		outbox.Append(events.RegenerateProducts{TaxonID: taxon.ID})
	}
	s.publish(ctx, &outbox)
	return taxon, nil
}

func (s *taxonService) GetByID(ctx context.Context, id uuid.UUID) (*types.Taxon, error) {
	taxon, err := s.taxonRepo.GetWithRules(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("taxon.get", "taxon")
		}
		return nil, domain.InternalError("taxon.get", err)
	}
	return taxon, nil
}

func (s *taxonService) ListByTaxonomy(ctx context.Context, taxonomyID uuid.UUID) ([]*types.Taxon, error) {
	nodes, err := s.taxonRepo.GetByTaxonomyID(ctx, nil, taxonomyID)
	if err != nil {
		return nil, domain.InternalError("taxon.list", err)
	}
	return nodes, nil
}

func (s *taxonService) Update(ctx context.Context, id uuid.UUID, in UpdateTaxonInput) (*types.Taxon, error) {
	const op = "taxon.update"
	taxon, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	structural := false
	nameOrPresentationChanged := false
	oldParentID := taxon.ParentID
	regen := false

	if in.ParentSet {
		if in.ParentID == nil {
			return nil, domain.ValidationError(op, domain.ReasonInvalidParent)
		}
		if *in.ParentID == taxon.ID {
			return nil, domain.ValidationError(op, domain.ReasonSelfParenting)
		}
		parents, err := s.taxonRepo.GetByIDs(ctx, nil, []uuid.UUID{*in.ParentID})
		if err != nil {
			return nil, domain.InternalError(op, err)
		}
		if len(parents) == 0 {
			return nil, domain.ValidationError(op, domain.ReasonInvalidParent)
		}
		if parents[0].TaxonomyID != taxon.TaxonomyID {
			return nil, domain.ValidationError(op, domain.ReasonParentTaxonomyMismatch)
		}
		if taxon.ParentID == nil {
			return nil, domain.ValidationError(op, domain.ReasonRootUndeletable)
		}
		if *taxon.ParentID != *in.ParentID {
			taxon.ParentID = in.ParentID
			structural = true
		}
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ValidationError(op, domain.ReasonNameRequired)
		}
		if name != taxon.Name {
			exists, err := s.taxonRepo.NameExistsInTaxonomy(ctx, nil, taxon.TaxonomyID, name, taxon.ID)
			if err != nil {
				return nil, domain.InternalError(op, err)
			}
			if exists {
				return nil, domain.ConflictError(op, domain.ReasonDuplicateName)
			}
			taxon.Name = name
			nameOrPresentationChanged = true
		}
	}
	if in.Presentation != nil && *in.Presentation != taxon.Presentation {
		taxon.Presentation = *in.Presentation
		nameOrPresentationChanged = true
	}
	if in.Description != nil {
		taxon.Description = *in.Description
	}
	if in.Position != nil && *in.Position != taxon.Position {
		taxon.Position = *in.Position
		structural = true
	}
	if in.HideFromNav != nil {
		taxon.HideFromNav = *in.HideFromNav
	}
	if in.Automatic != nil && *in.Automatic != taxon.Automatic {
		taxon.Automatic = *in.Automatic
		regen = true
	}
	if in.RulesMatchPolicy != nil && *in.RulesMatchPolicy != taxon.RulesMatchPolicy {
		if !types.ValidMatchPolicy(*in.RulesMatchPolicy) {
			return nil, domain.ValidationError(op, domain.ReasonInvalidMatchPolicy)
		}
		taxon.RulesMatchPolicy = *in.RulesMatchPolicy
		regen = true
	}
	if in.SortOrder != nil {
		if !types.ValidSortOrder(*in.SortOrder) {
			return nil, domain.ValidationError(op, "invalid_sort_order")
		}
		taxon.SortOrder = *in.SortOrder
	}
	if regen {
		taxon.MarkedForRegenerateTaxonProducts = true
	}

	var outbox events.Outbox
	err = s.db.Transaction(func(transaction *gorm.DB) error {
		if err := s.taxonRepo.Update(ctx, transaction, taxon); err != nil {
			return err
		}
		if structural || nameOrPresentationChanged {
			return s.hierarchy.Rebuild(ctx, transaction, taxon.TaxonomyID)
		}
		return nil
	})
	if err != nil {
		return nil, s.commandError(op, taxon.TaxonomyID, err)
	}

	if structural && in.ParentSet {
		outbox.Append(events.TaxonMoved{
			TaxonID:     taxon.ID,
			TaxonomyID:  taxon.TaxonomyID,
			OldParentID: oldParentID,
			NewParentID: taxon.ParentID,
			NewIndex:    taxon.Position,
		})
	} else {
		outbox.Append(events.TaxonUpdated{
			TaxonID:                   taxon.ID,
			TaxonomyID:                taxon.TaxonomyID,
			NameOrPresentationChanged: nameOrPresentationChanged,
		})
	}
	if regen {
		outbox.Append(events.RegenerateProducts{TaxonID: taxon.ID})
	}
	s.publish(ctx, &outbox)
	return taxon, nil
}

func (s *taxonService) Move(ctx context.Context, id uuid.UUID, newParentID uuid.UUID, position int) (*types.Taxon, error) {
	return s.Update(ctx, id, UpdateTaxonInput{
		ParentID:  &newParentID,
		ParentSet: true,
		Position:  &position,
	})
}

func (s *taxonService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "taxon.delete"
	taxon, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if taxon.IsRoot() {
		return domain.ValidationError(op, domain.ReasonRootUndeletable)
	}
	children, err := s.taxonRepo.CountChildren(ctx, nil, id)
	if err != nil {
		return domain.InternalError(op, err)
	}
	// Children must be reparented first; no implicit subtree deletes.
	if children > 0 {
		return domain.ValidationError(op, domain.ReasonHasChildren)
	}

	var outbox events.Outbox
	err = s.db.Transaction(func(transaction *gorm.DB) error {
		for _, r := range taxon.Rules {
			if err := s.ruleRepo.Delete(ctx, transaction, r.ID); err != nil {
				return err
			}
		}
		if err := transaction.WithContext(ctx).
			Where("taxon_id = ?", id).
			Delete(&types.Classification{}).Error; err != nil {
			return err
		}
		if err := s.taxonRepo.Delete(ctx, transaction, id); err != nil {
			return err
		}
		return s.hierarchy.Rebuild(ctx, transaction, taxon.TaxonomyID)
	})
	if err != nil {
		return s.commandError(op, taxon.TaxonomyID, err)
	}

	outbox.Append(events.TaxonDeleted{TaxonID: id, TaxonomyID: taxon.TaxonomyID})
	s.publish(ctx, &outbox)
	return nil
}

func (s *taxonService) AddRule(ctx context.Context, taxonID uuid.UUID, in RuleInput) (*types.TaxonRule, error) {
	const op = "taxon.add_rule"
	taxon, err := s.GetByID(ctx, taxonID)
	if err != nil {
		return nil, err
	}

	rule := &types.TaxonRule{
		TaxonID:      taxonID,
		Type:         strings.TrimSpace(in.Type),
		Value:        strings.TrimSpace(in.Value),
		MatchPolicy:  strings.TrimSpace(in.MatchPolicy),
		PropertyName: in.PropertyName,
	}
	if err := rules.Validate(rule); err != nil {
		return nil, mapRuleError(op, err)
	}
	if rule.Value == "" && !nullOperator(rule.MatchPolicy) {
		return nil, domain.ValidationError(op, domain.ReasonRuleRequired)
	}
	for _, existing := range taxon.Rules {
		if existing.SameShape(rule) {
			return nil, domain.ConflictError(op, domain.ReasonDuplicateRule)
		}
	}

	var outbox events.Outbox
	err = s.db.Transaction(func(transaction *gorm.DB) error {
		if _, err := s.ruleRepo.Create(ctx, transaction, []*types.TaxonRule{rule}); err != nil {
			return err
		}
		return s.taxonRepo.SetRegenerateFlag(ctx, transaction, taxonID, true)
	})
	if err != nil {
		return nil, s.commandError(op, taxon.TaxonomyID, err)
	}

	outbox.Append(events.RegenerateProducts{TaxonID: taxonID})
	s.publish(ctx, &outbox)
	return rule, nil
}

func (s *taxonService) RemoveRule(ctx context.Context, taxonID, ruleID uuid.UUID) error {
	const op = "taxon.remove_rule"
	taxon, err := s.GetByID(ctx, taxonID)
	if err != nil {
		return err
	}
	ruleRows, err := s.ruleRepo.GetByIDs(ctx, nil, []uuid.UUID{ruleID})
	if err != nil {
		return domain.InternalError(op, err)
	}
	if len(ruleRows) == 0 {
		return domain.NotFoundError(op, "taxon_rule")
	}
	if ruleRows[0].TaxonID != taxonID {
		return domain.ValidationError(op, domain.ReasonRuleTaxonMismatch)
	}

	var outbox events.Outbox
	err = s.db.Transaction(func(transaction *gorm.DB) error {
		if err := s.ruleRepo.Delete(ctx, transaction, ruleID); err != nil {
			return err
		}
		return s.taxonRepo.SetRegenerateFlag(ctx, transaction, taxonID, true)
	})
	if err != nil {
		return s.commandError(op, taxon.TaxonomyID, err)
	}

	outbox.Append(events.RegenerateProducts{TaxonID: taxonID})
	s.publish(ctx, &outbox)
	return nil
}

func (s *taxonService) publish(ctx context.Context, outbox *events.Outbox) {
	if s.bus == nil {
		return
	}
	outbox.PublishAll(ctx, s.bus, s.log)
}

func (s *taxonService) commandError(op string, taxonomyID uuid.UUID, err error) error {
	var domErr *domain.Error
	if errors.As(err, &domErr) {
		return err
	}
	s.log.Error("taxon command failed", "op", op, "error", err, "taxonomy_id", taxonomyID)
	return domain.InternalError(op, err)
}

func mapRuleError(op string, err error) error {
	switch {
	case errors.Is(err, rules.ErrInvalidType):
		return domain.NewError(domain.CodeValidation, op, domain.ReasonInvalidRuleType, err)
	case errors.Is(err, rules.ErrInvalidMatchPolicy):
		return domain.NewError(domain.CodeValidation, op, domain.ReasonInvalidMatchPolicy, err)
	case errors.Is(err, rules.ErrPropertyNameMissing):
		return domain.NewError(domain.CodeValidation, op, domain.ReasonPropertyNameRequired, err)
	}
	return domain.InternalError(op, err)
}

func nullOperator(policy string) bool {
	op := query.Operator(policy)
	return op == query.OpIsNull || op == query.OpIsNotNull
}

func findNode(nodes []*types.Taxon, id uuid.UUID) *types.Taxon {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
