package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/repos"
	"github.com/resys-shop/backend/internal/types"
)

type testEnv struct {
	db                 *gorm.DB
	taxonomyRepo       repos.TaxonomyRepo
	taxonRepo          repos.TaxonRepo
	ruleRepo           repos.TaxonRuleRepo
	classificationRepo repos.ClassificationRepo
	productRepo        repos.ProductRepo
	taxonomies         TaxonomyService
	taxons             TaxonService
	classifications    ClassificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&types.Taxonomy{},
		&types.Taxon{},
		&types.TaxonRule{},
		&types.Classification{},
		&types.Product{},
		&types.Variant{},
		&types.Price{},
		&types.ProductProperty{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewNop()
	env := &testEnv{
		db:                 db,
		taxonomyRepo:       repos.NewTaxonomyRepo(db, log),
		taxonRepo:          repos.NewTaxonRepo(db, log),
		ruleRepo:           repos.NewTaxonRuleRepo(db, log),
		classificationRepo: repos.NewClassificationRepo(db, log),
		productRepo:        repos.NewProductRepo(db, log),
	}
	hierarchy := NewHierarchyService(db, log, env.taxonRepo)
	ruleEngine := NewRuleEngineService(db, log)
	env.taxonomies = NewTaxonomyService(db, log, env.taxonomyRepo, env.taxonRepo, hierarchy, nil)
	env.taxons = NewTaxonService(db, log, env.taxonRepo, env.ruleRepo, hierarchy, nil)
	env.classifications = NewClassificationService(db, log, env.taxonRepo, env.classificationRepo, env.productRepo, ruleEngine, nil)
	return env
}

// seedTaxonomy creates a taxonomy through the service and returns it along
// with the seeded root taxon.
func (env *testEnv) seedTaxonomy(t *testing.T, name string) (*types.Taxonomy, *types.Taxon) {
	t.Helper()
	taxonomy, err := env.taxonomies.Create(context.Background(), CreateTaxonomyInput{Name: name})
	if err != nil {
		t.Fatalf("create taxonomy %q: %v", name, err)
	}
	nodes, err := env.taxonRepo.GetByTaxonomyID(context.Background(), nil, taxonomy.ID)
	if err != nil {
		t.Fatalf("load taxons: %v", err)
	}
	for _, n := range nodes {
		if n.IsRoot() {
			return taxonomy, n
		}
	}
	t.Fatalf("taxonomy %q has no root", name)
	return nil, nil
}

func (env *testEnv) seedTaxon(t *testing.T, taxonomyID uuid.UUID, parentID *uuid.UUID, name string, automatic bool) *types.Taxon {
	t.Helper()
	taxon, err := env.taxons.Create(context.Background(), CreateTaxonInput{
		TaxonomyID: taxonomyID,
		ParentID:   parentID,
		Name:       name,
		Automatic:  automatic,
	})
	if err != nil {
		t.Fatalf("create taxon %q: %v", name, err)
	}
	return taxon
}

func (env *testEnv) seedProduct(t *testing.T, p *types.Product) *types.Product {
	t.Helper()
	if p.Slug == "" {
		p.Slug = uuid.NewString()
	}
	if _, err := env.productRepo.Create(context.Background(), nil, []*types.Product{p}); err != nil {
		t.Fatalf("create product %q: %v", p.Name, err)
	}
	return p
}

func (env *testEnv) seedRule(t *testing.T, taxonID uuid.UUID, ruleType, matchPolicy, value string) *types.TaxonRule {
	t.Helper()
	rule, err := env.taxons.AddRule(context.Background(), taxonID, RuleInput{
		Type:        ruleType,
		MatchPolicy: matchPolicy,
		Value:       value,
	})
	if err != nil {
		t.Fatalf("add rule %s %s %q: %v", ruleType, matchPolicy, value, err)
	}
	return rule
}

func (env *testEnv) reloadTaxon(t *testing.T, id uuid.UUID) *types.Taxon {
	t.Helper()
	taxon, err := env.taxonRepo.GetWithRules(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("reload taxon: %v", err)
	}
	return taxon
}

func (env *testEnv) membership(t *testing.T, taxonID uuid.UUID) map[uuid.UUID]bool {
	t.Helper()
	ids, err := env.classificationRepo.ProductIDsForTaxon(context.Background(), nil, taxonID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
