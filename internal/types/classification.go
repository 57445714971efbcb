package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Classification is the join record expressing a product's membership in a
// taxon. For automatic taxons it is exclusively managed by the
// classification synchronizer; for manual taxons by editors.
type Classification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_classification_product_taxon" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	TaxonID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_classification_product_taxon;index" json:"taxon_id"`
	Taxon     *Taxon    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaxonID;references:ID" json:"taxon,omitempty"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Classification) TableName() string { return "classification" }

func (c *Classification) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
