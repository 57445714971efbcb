package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is the catalog read model the rule engine matches against.
// MasterSKU and MasterPrice mirror the master variant so scalar rules can
// compile into plain column filters; per-variant data stays relational.
type Product struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string            `gorm:"not null;index;column:name" json:"name"`
	Presentation    string            `gorm:"column:presentation" json:"presentation"`
	Slug            string            `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description     string            `gorm:"column:description" json:"description"`
	MasterSKU       string            `gorm:"index;column:master_sku" json:"master_sku"`
	MasterPrice     float64           `gorm:"column:master_price;not null;default:0" json:"master_price"`
	Weight          float64           `gorm:"column:weight;not null;default:0" json:"weight"`
	Available       bool              `gorm:"column:available;not null;default:true" json:"available"`
	Archived        bool              `gorm:"column:archived;not null;default:false" json:"archived"`
	AvailableOn     *time.Time        `gorm:"column:available_on" json:"available_on,omitempty"`
	DiscontinueOn   *time.Time        `gorm:"column:discontinue_on" json:"discontinue_on,omitempty"`
	PublicMetadata  datatypes.JSON    `gorm:"column:public_metadata;type:jsonb" json:"public_metadata,omitempty"`
	Variants        []*Variant        `gorm:"foreignKey:ProductID;references:ID" json:"variants,omitempty"`
	Properties      []*ProductProperty `gorm:"foreignKey:ProductID;references:ID" json:"properties,omitempty"`
	Classifications []*Classification `gorm:"foreignKey:ProductID;references:ID" json:"classifications,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
