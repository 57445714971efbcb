package services

import (
	"context"
	"testing"

	"github.com/resys-shop/backend/internal/domain"
)

func TestTaxonomyCreateSeedsRoot(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, root := env.seedTaxonomy(t, "Categories")

	if root.TaxonomyID != taxonomy.ID {
		t.Fatalf("root belongs to %s, want %s", root.TaxonomyID, taxonomy.ID)
	}
	if root.Lft != 1 || root.Rgt != 2 || root.Depth != 0 {
		t.Fatalf("root coordinates = (%d,%d,%d), want (1,2,0)", root.Lft, root.Rgt, root.Depth)
	}
	if root.Permalink != "categories" {
		t.Fatalf("root permalink = %q, want %q", root.Permalink, "categories")
	}
	if root.CreatedAt.IsZero() || root.UpdatedAt.IsZero() {
		t.Fatalf("root timestamps not populated: created=%v updated=%v", root.CreatedAt, root.UpdatedAt)
	}
}

func TestTaxonomyCreateRejectsBlankName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.taxonomies.Create(context.Background(), CreateTaxonomyInput{Name: "   "})
	if !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if domain.ReasonOf(err) != domain.ReasonNameRequired {
		t.Fatalf("reason = %q, want %q", domain.ReasonOf(err), domain.ReasonNameRequired)
	}
}

func TestTaxonomyCreateRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t, "Brands")

	_, err := env.taxonomies.Create(context.Background(), CreateTaxonomyInput{Name: "Brands"})
	if !domain.IsCode(err, domain.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if domain.ReasonOf(err) != domain.ReasonDuplicateName {
		t.Fatalf("reason = %q, want %q", domain.ReasonOf(err), domain.ReasonDuplicateName)
	}
}

func TestTaxonomyDeleteBlockedByTaxons(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, root := env.seedTaxonomy(t, "Categories")
	child := env.seedTaxon(t, taxonomy.ID, &root.ID, "Shoes", false)

	err := env.taxonomies.Delete(context.Background(), taxonomy.ID)
	if !domain.IsCode(err, domain.CodeConflict) || domain.ReasonOf(err) != domain.ReasonHasTaxons {
		t.Fatalf("err = %v, want conflict/has_taxons", err)
	}

	if err := env.taxons.Delete(context.Background(), child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if err := env.taxonomies.Delete(context.Background(), taxonomy.ID); err != nil {
		t.Fatalf("delete emptied taxonomy: %v", err)
	}
	if _, err := env.taxonomies.GetByID(context.Background(), taxonomy.ID); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("get after delete = %v, want not_found", err)
	}
}

func TestTaxonomyUpdateRenames(t *testing.T) {
	env := newTestEnv(t)
	taxonomy, _ := env.seedTaxonomy(t, "Categories")

	newName := "Catalog"
	updated, err := env.taxonomies.Update(context.Background(), taxonomy.ID, UpdateTaxonomyInput{Name: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Catalog" {
		t.Fatalf("name = %q, want Catalog", updated.Name)
	}
}
