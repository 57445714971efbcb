package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/query"
	"github.com/resys-shop/backend/internal/rules"
	"github.com/resys-shop/backend/internal/types"
)

// RuleEngineService compiles a taxon's declarative rules into the set of
// product ids currently satisfying membership.
//
// Under the "all" policy every rule becomes one more conjunct on a single
// base query over non-archived products. Under the "any" policy each rule
// is evaluated independently to an id set and the result is the union —
// simple and collection predicates cannot be merged into one SQL
// disjunction across their heterogeneous shapes, so the union of
// per-rule sets is the documented behavior, not an approximation to fix.
type RuleEngineService interface {
	FindMatchingProducts(ctx context.Context, tx *gorm.DB, taxon *types.Taxon) ([]uuid.UUID, error)
}

type ruleEngineService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleEngineService(db *gorm.DB, baseLog *logger.Logger) RuleEngineService {
	return &ruleEngineService{
		db:  db,
		log: baseLog.With("service", "RuleEngineService"),
	}
}

func (s *ruleEngineService) FindMatchingProducts(ctx context.Context, tx *gorm.DB, taxon *types.Taxon) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	// Zero rules means empty membership, never "all products".
	if len(taxon.Rules) == 0 {
		return nil, nil
	}

	switch taxon.RulesMatchPolicy {
	case types.RulesMatchAll:
		return s.matchAll(ctx, transaction, taxon.Rules)
	case types.RulesMatchAny:
		return s.matchAny(ctx, transaction, taxon.Rules)
	default:
		// Fail closed on unrecognized policies.
		s.log.Warn("unrecognized rules match policy, membership empty",
			"taxon_id", taxon.ID, "policy", taxon.RulesMatchPolicy)
		return nil, nil
	}
}

func (s *ruleEngineService) baseQuery(ctx context.Context, transaction *gorm.DB) *gorm.DB {
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("archived = ?", false)
}

func (s *ruleEngineService) matchAll(ctx context.Context, transaction *gorm.DB, ruleSet []*types.TaxonRule) ([]uuid.UUID, error) {
	q := s.baseQuery(ctx, transaction)
	var err error
	for _, r := range ruleSet {
		q, err = s.applyRule(ctx, transaction, q, r)
		if err != nil {
			return nil, err
		}
	}
	var ids []uuid.UUID
	if err := q.Pluck("products.id", &ids).Error; err != nil {
		return nil, err
	}
	return sortedIDs(ids), nil
}

func (s *ruleEngineService) matchAny(ctx context.Context, transaction *gorm.DB, ruleSet []*types.TaxonRule) ([]uuid.UUID, error) {
	union := make(map[uuid.UUID]struct{})
	for _, r := range ruleSet {
		q, err := s.applyRule(ctx, transaction, s.baseQuery(ctx, transaction), r)
		if err != nil {
			return nil, err
		}
		var ids []uuid.UUID
		if err := q.Pluck("products.id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			union[id] = struct{}{}
		}
	}
	out := make([]uuid.UUID, 0, len(union))
	for id := range union {
		out = append(out, id)
	}
	return sortedIDs(out), nil
}

// applyRule adds one rule as a conjunct on q. Scalar rules compile through
// the generic filter builder; property and collection rules each get their
// bespoke subquery shape — no generic compiler exists for relational
// predicates.
func (s *ruleEngineService) applyRule(ctx context.Context, transaction *gorm.DB, q *gorm.DB, r *types.TaxonRule) (*gorm.DB, error) {
	t := rules.Type(r.Type)
	var (
		f   query.Filter
		err error
	)
	switch {
	case t == rules.TypeProductProperty:
		f, err = s.propertyFilter(ctx, transaction, r)
	case t.IsCollection():
		f, err = s.collectionFilter(ctx, transaction, r)
	default:
		f, err = rules.CompileSimple(r)
	}
	if err != nil {
		return nil, err
	}
	return query.Apply(q, []query.Filter{f}, query.CombineAnd)
}

func (s *ruleEngineService) propertyFilter(ctx context.Context, transaction *gorm.DB, r *types.TaxonRule) (query.Filter, error) {
	if r.PropertyName == nil || *r.PropertyName == "" {
		return query.Filter{}, fmt.Errorf("product_property rule %s missing property name", r.ID)
	}
	sub := transaction.WithContext(ctx).
		Model(&types.ProductProperty{}).
		Select("product_id").
		Where("name = ?", *r.PropertyName)
	vf, err := rules.ValueFilter(r, "value")
	if err != nil {
		return query.Filter{}, err
	}
	sub, err = query.Apply(sub, []query.Filter{vf}, query.CombineAnd)
	if err != nil {
		return query.Filter{}, err
	}
	return query.Filter{Field: "products.id", Op: query.OpIn, Value: sub}, nil
}

func (s *ruleEngineService) collectionFilter(ctx context.Context, transaction *gorm.DB, r *types.TaxonRule) (query.Filter, error) {
	switch rules.Type(r.Type) {
	case rules.TypeVariantSKU:
		sub := transaction.WithContext(ctx).
			Model(&types.Variant{}).
			Select("product_id")
		vf, err := rules.ValueFilter(r, "sku")
		if err != nil {
			return query.Filter{}, err
		}
		sub, err = query.Apply(sub, []query.Filter{vf}, query.CombineAnd)
		if err != nil {
			return query.Filter{}, err
		}
		return query.Filter{Field: "products.id", Op: query.OpIn, Value: sub}, nil

	case rules.TypeVariantPrice:
		sub := transaction.WithContext(ctx).
			Model(&types.Price{}).
			Select("variants.product_id").
			Joins("JOIN variants ON variants.id = prices.variant_id")
		vf, err := rules.ValueFilter(r, "prices.amount")
		if err != nil {
			return query.Filter{}, err
		}
		sub, err = query.Apply(sub, []query.Filter{vf}, query.CombineAnd)
		if err != nil {
			return query.Filter{}, err
		}
		return query.Filter{Field: "products.id", Op: query.OpIn, Value: sub}, nil

	case rules.TypeTaxon:
		taxonIDs, negated, err := taxonRuleOperands(r)
		if err != nil {
			return query.Filter{}, err
		}
		sub := transaction.WithContext(ctx).
			Model(&types.Classification{}).
			Select("product_id").
			Where("taxon_id IN ?", taxonIDs)
		op := query.OpIn
		if negated {
			op = query.OpNotIn
		}
		return query.Filter{Field: "products.id", Op: op, Value: sub}, nil
	}
	return query.Filter{}, fmt.Errorf("rule type %q has no collection query", r.Type)
}

// taxonRuleOperands resolves a cross-taxon membership rule's comparand into
// target taxon ids plus the negation flag.
func taxonRuleOperands(r *types.TaxonRule) ([]uuid.UUID, bool, error) {
	op := query.Operator(r.MatchPolicy)
	value, err := rules.ParseValue(rules.TypeTaxon, op, r.Value)
	if err != nil {
		return nil, false, err
	}
	var ids []uuid.UUID
	switch v := value.(type) {
	case uuid.UUID:
		ids = []uuid.UUID{v}
	case []uuid.UUID:
		ids = v
	default:
		return nil, false, fmt.Errorf("taxon rule %s: unsupported value %q", r.ID, r.Value)
	}
	switch op {
	case query.OpEqual, query.OpIn, query.OpContains:
		return ids, false, nil
	case query.OpNotEqual, query.OpNotIn, query.OpNotContains:
		return ids, true, nil
	default:
		return nil, false, fmt.Errorf("taxon rule %s: unsupported operator %q", r.ID, r.MatchPolicy)
	}
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
