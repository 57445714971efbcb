package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Taxonomy is a named grouping containing exactly one tree of taxons
// (e.g. "Categories", "Brands"). Exactly one owned taxon has a nil parent.
type Taxonomy struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Presentation    string         `gorm:"column:presentation" json:"presentation"`
	Position        int            `gorm:"column:position;not null;default:0" json:"position"`
	PublicMetadata  datatypes.JSON `gorm:"column:public_metadata;type:jsonb" json:"public_metadata,omitempty"`
	PrivateMetadata datatypes.JSON `gorm:"column:private_metadata;type:jsonb" json:"-"`
	Taxons          []*Taxon       `gorm:"foreignKey:TaxonomyID;references:ID" json:"taxons,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Taxonomy) TableName() string { return "taxonomies" }

func (t *Taxonomy) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
