package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Match policies for automatic taxons.
const (
	RulesMatchAll = "all"
	RulesMatchAny = "any"
)

// Member display orderings. Distinct from the tree Position.
const (
	SortOrderManual      = "manual"
	SortOrderBestSelling = "best-selling"
	SortOrderNameAsc     = "name-asc"
	SortOrderNameDesc    = "name-desc"
	SortOrderPriceAsc    = "price-asc"
	SortOrderPriceDesc   = "price-desc"
)

// Taxon is one node in a taxonomy's category tree. Lft/Rgt/Depth encode the
// nested set model and are recomputed by the hierarchy rebuild, never set by
// callers. A node is a leaf iff Rgt == Lft+1.
type Taxon struct {
	ID                               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TaxonomyID                       uuid.UUID         `gorm:"type:uuid;not null;index" json:"taxonomy_id"`
	Taxonomy                         *Taxonomy         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaxonomyID;references:ID" json:"taxonomy,omitempty"`
	ParentID                         *uuid.UUID        `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name                             string            `gorm:"not null;index;column:name" json:"name"`
	Presentation                     string            `gorm:"column:presentation" json:"presentation"`
	Description                      string            `gorm:"column:description" json:"description"`
	Permalink                        string            `gorm:"index;column:permalink" json:"permalink"`
	PrettyName                       string            `gorm:"column:pretty_name" json:"pretty_name"`
	Position                         int               `gorm:"column:position;not null;default:0" json:"position"`
	Lft                              int               `gorm:"column:lft;index;not null;default:0" json:"lft"`
	Rgt                              int               `gorm:"column:rgt;index;not null;default:0" json:"rgt"`
	Depth                            int               `gorm:"column:depth;not null;default:0" json:"depth"`
	HideFromNav                      bool              `gorm:"column:hide_from_nav;not null;default:false" json:"hide_from_nav"`
	Automatic                        bool              `gorm:"column:automatic;not null;default:false" json:"automatic"`
	RulesMatchPolicy                 string            `gorm:"column:rules_match_policy;not null;default:all" json:"rules_match_policy"`
	SortOrder                        string            `gorm:"column:sort_order;not null;default:manual" json:"sort_order"`
	MarkedForRegenerateTaxonProducts bool              `gorm:"column:marked_for_regenerate_taxon_products;not null;default:false" json:"marked_for_regenerate_taxon_products"`
	PublicMetadata                   datatypes.JSON    `gorm:"column:public_metadata;type:jsonb" json:"public_metadata,omitempty"`
	PrivateMetadata                  datatypes.JSON    `gorm:"column:private_metadata;type:jsonb" json:"-"`
	Rules                            []*TaxonRule      `gorm:"foreignKey:TaxonID;references:ID" json:"rules,omitempty"`
	Classifications                  []*Classification `gorm:"foreignKey:TaxonID;references:ID" json:"classifications,omitempty"`
	CreatedAt                        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt                        gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Taxon) TableName() string { return "taxa" }

func (t *Taxon) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsRoot reports whether the taxon is its taxonomy's root node.
func (t *Taxon) IsRoot() bool { return t.ParentID == nil }

// IsLeaf reports whether the taxon has no descendants, per its nested set
// coordinates. Only meaningful after a rebuild.
func (t *Taxon) IsLeaf() bool { return t.Rgt == t.Lft+1 }

// DisplayName is the presentation, falling back to the name when blank.
func (t *Taxon) DisplayName() string {
	if t.Presentation != "" {
		return t.Presentation
	}
	return t.Name
}

// ValidMatchPolicy reports whether the stored policy is a recognized value.
func ValidMatchPolicy(policy string) bool {
	return policy == RulesMatchAll || policy == RulesMatchAny
}

// ValidSortOrder reports whether the stored ordering is a recognized value.
func ValidSortOrder(order string) bool {
	switch order {
	case SortOrderManual, SortOrderBestSelling, SortOrderNameAsc, SortOrderNameDesc, SortOrderPriceAsc, SortOrderPriceDesc:
		return true
	}
	return false
}
