package services

import (
	"context"
	"testing"

	"github.com/resys-shop/backend/internal/domain"
	"github.com/resys-shop/backend/internal/types"
)

func TestTaxonCreateDefaultsUnderRoot(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, root := env.seedTaxonomy(t, "Categories")

	child := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("parent = %v, want root %s", child.ParentID, root.ID)
	}

	reloaded := env.reloadTaxon(t, child.ID)
	if reloaded.Lft != 2 || reloaded.Rgt != 3 || reloaded.Depth != 1 {
		t.Fatalf("child coordinates = (%d,%d,%d), want (2,3,1)",
			reloaded.Lft, reloaded.Rgt, reloaded.Depth)
	}
	if reloaded.Permalink != "categories/shoes" {
		t.Fatalf("permalink = %q, want %q", reloaded.Permalink, "categories/shoes")
	}
	newRoot := env.reloadTaxon(t, root.ID)
	if newRoot.Lft != 1 || newRoot.Rgt != 4 {
		t.Fatalf("root coordinates = (%d,%d), want (1,4)", newRoot.Lft, newRoot.Rgt)
	}
}

func TestTaxonCreateRejectsForeignParent(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	_, otherRoot := env.seedTaxonomy(t, "Brands")

	_, err := env.taxons.Create(context.Background(), CreateTaxonInput{
		TaxonomyID: taxonomy.ID,
		ParentID:   &otherRoot.ID,
		Name:       "Shoes",
	})
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonInvalidParent {
		t.Fatalf("err = %v, want validation/invalid_parent", err)
	}
}

func TestTaxonCreateRejectsDuplicateNameInTaxonomy(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)

	_, err := env.taxons.Create(context.Background(), CreateTaxonInput{
		TaxonomyID: taxonomy.ID,
		Name:       "Shoes",
	})
	if !domain.IsCode(err, domain.CodeConflict) || domain.ReasonOf(err) != domain.ReasonDuplicateName {
		t.Fatalf("err = %v, want conflict/duplicate_name", err)
	}
}

func TestTaxonMoveReparentsSubtree(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, root := env.seedTaxonomy(t, "Categories")
	apparel := env.seedTaxon(t, taxonomy.ID, &root.ID, "Apparel", false)
	shoes := env.seedTaxon(t, taxonomy.ID, &root.ID, "Shoes", false)
	boots := env.seedTaxon(t, taxonomy.ID, &shoes.ID, "Boots", false)

	if _, err := env.taxons.Move(context.Background(), shoes.ID, apparel.ID, 0); err != nil {
		t.Fatalf("move: %v", err)
	}

	movedShoes := env.reloadTaxon(t, shoes.ID)
	if movedShoes.ParentID == nil || *movedShoes.ParentID != apparel.ID {
		t.Fatalf("shoes parent = %v, want %s", movedShoes.ParentID, apparel.ID)
	}
	if movedShoes.Depth != 2 {
		t.Fatalf("shoes depth = %d, want 2", movedShoes.Depth)
	}
	movedBoots := env.reloadTaxon(t, boots.ID)
	if movedBoots.Permalink != "categories/apparel/shoes/boots" {
		t.Fatalf("boots permalink = %q, want %q",
			movedBoots.Permalink, "categories/apparel/shoes/boots")
	}
	if movedBoots.Depth != 3 {
		t.Fatalf("boots depth = %d, want 3", movedBoots.Depth)
	}
}

func TestTaxonMoveRejectsSelfParent(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	shoes := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)

	_, err := env.taxons.Move(context.Background(), shoes.ID, shoes.ID, 0)
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonSelfParenting {
		t.Fatalf("err = %v, want validation/self_parenting", err)
	}
}

func TestTaxonMoveRejectsCycle(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	shoes := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)
	boots := env.seedTaxon(t, taxonomy.ID, &shoes.ID, "Boots", false)

	// Shoes under its own descendant would orbit forever.
	_, err := env.taxons.Move(context.Background(), shoes.ID, boots.ID, 0)
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonCycleDetected {
		t.Fatalf("err = %v, want validation/cycle_detected", err)
	}

	// The rejected transaction must leave coordinates intact.
	reloaded := env.reloadTaxon(t, boots.ID)
	if reloaded.ParentID == nil || *reloaded.ParentID != shoes.ID {
		t.Fatalf("boots parent mutated to %v", reloaded.ParentID)
	}
	if reloaded.Permalink != "categories/shoes/boots" {
		t.Fatalf("boots permalink mutated to %q", reloaded.Permalink)
	}
}

func TestTaxonDeleteRejectsRoot(t *testing.T) {
	env := newTestEnv(t)
	_, root := env.seedTaxonomy(t, "Categories")

	err := env.taxons.Delete(context.Background(), root.ID)
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonRootUndeletable {
		t.Fatalf("err = %v, want validation/root_undeletable", err)
	}
}

func TestTaxonDeleteRejectsParentOfChildren(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	shoes := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)
	env.seedTaxon(t, taxonomy.ID, &shoes.ID, "Boots", false)

	err := env.taxons.Delete(context.Background(), shoes.ID)
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonHasChildren {
		t.Fatalf("err = %v, want validation/has_children", err)
	}
}

func TestTaxonDeleteLeafCleansUp(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, root := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)
	env.seedRule(t, sale.ID, "product_price", "less", "50")

	product := env.seedProduct(t, &types.Product{Name: "Canvas Tote", MasterPrice: 25})
	if _, err := env.classifications.Sync(context.Background(), nil, sale.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !env.membership(t, sale.ID)[product.ID] {
		t.Fatal("product not classified before delete")
	}

	if err := env.taxons.Delete(context.Background(), sale.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.taxons.GetByID(context.Background(), sale.ID); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("get after delete = %v, want not_found", err)
	}
	if len(env.membership(t, sale.ID)) != 0 {
		t.Fatal("classifications survived taxon delete")
	}
	reloadedRoot := env.reloadTaxon(t, root.ID)
	if reloadedRoot.Lft != 1 || reloadedRoot.Rgt != 2 {
		t.Fatalf("root coordinates = (%d,%d) after delete, want (1,2)",
			reloadedRoot.Lft, reloadedRoot.Rgt)
	}
}

func TestTaxonUpdateRenameRegeneratesPermalinks(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	shoes := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)
	boots := env.seedTaxon(t, taxonomy.ID, &shoes.ID, "Boots", false)

	newName := "Footwear"
	if _, err := env.taxons.Update(context.Background(), shoes.ID, UpdateTaxonInput{Name: &newName}); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded := env.reloadTaxon(t, boots.ID)
	if reloaded.Permalink != "categories/footwear/boots" {
		t.Fatalf("permalink = %q, want %q", reloaded.Permalink, "categories/footwear/boots")
	}
}

func TestTaxonUpdateRejectsBadPolicy(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	shoes := env.seedTaxon(t, taxonomy.ID, nil, "Shoes", false)

	policy := "most"
	_, err := env.taxons.Update(context.Background(), shoes.ID, UpdateTaxonInput{RulesMatchPolicy: &policy})
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonInvalidMatchPolicy {
		t.Fatalf("err = %v, want validation/invalid_match_policy", err)
	}
}

func TestAddRuleValidation(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)

	cases := []struct {
		name   string
		in     RuleInput
		reason string
	}{
		{"unknown type", RuleInput{Type: "product_color", MatchPolicy: "equal", Value: "red"}, domain.ReasonInvalidRuleType},
		{"unknown operator", RuleInput{Type: "product_name", MatchPolicy: "resembles", Value: "shirt"}, domain.ReasonInvalidMatchPolicy},
		{"property without name", RuleInput{Type: "product_property", MatchPolicy: "equal", Value: "cotton"}, domain.ReasonPropertyNameRequired},
		{"empty value", RuleInput{Type: "product_name", MatchPolicy: "equal", Value: "  "}, domain.ReasonRuleRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.taxons.AddRule(context.Background(), sale.ID, tc.in)
			if !domain.IsCode(err, domain.CodeValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if domain.ReasonOf(err) != tc.reason {
				t.Fatalf("reason = %q, want %q", domain.ReasonOf(err), tc.reason)
			}
		})
	}
}

func TestAddRuleRejectsDuplicateShape(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)
	env.seedRule(t, sale.ID, "product_price", "less", "50")

	_, err := env.taxons.AddRule(context.Background(), sale.ID, RuleInput{
		Type: "product_price", MatchPolicy: "less", Value: "50",
	})
	if !domain.IsCode(err, domain.CodeConflict) || domain.ReasonOf(err) != domain.ReasonDuplicateRule {
		t.Fatalf("err = %v, want conflict/duplicate_rule", err)
	}
}

func TestAddRuleMarksTaxonDirty(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)

	env.seedRule(t, sale.ID, "product_price", "less", "50")
	if !env.reloadTaxon(t, sale.ID).MarkedForRegenerateTaxonProducts {
		t.Fatal("taxon not marked for regeneration after rule add")
	}
}

func TestRemoveRuleRejectsForeignRule(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)
	other := env.seedTaxon(t, taxonomy.ID, nil, "New", true)
	rule := env.seedRule(t, other.ID, "product_name", "contains", "fresh")

	err := env.taxons.RemoveRule(context.Background(), sale.ID, rule.ID)
	if !domain.IsCode(err, domain.CodeValidation) || domain.ReasonOf(err) != domain.ReasonRuleTaxonMismatch {
		t.Fatalf("err = %v, want validation/rule_taxon_mismatch", err)
	}
}

func TestRemoveRule(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")
	sale := env.seedTaxon(t, taxonomy.ID, nil, "Sale", true)
	rule := env.seedRule(t, sale.ID, "product_price", "less", "50")

	if err := env.taxons.RemoveRule(context.Background(), sale.ID, rule.ID); err != nil {
		t.Fatalf("remove rule: %v", err)
	}
	if got := len(env.reloadTaxon(t, sale.ID).Rules); got != 0 {
		t.Fatalf("rules remaining = %d, want 0", got)
	}
}
