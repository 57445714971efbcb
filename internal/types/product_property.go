package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductProperty is one named attribute value on a product
// (e.g. Material="Cotton"). Targeted by product_property rules.
type ProductProperty struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Name      string    `gorm:"not null;index;column:name" json:"name"`
	Value     string    `gorm:"column:value" json:"value"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ProductProperty) TableName() string { return "product_properties" }

func (p *ProductProperty) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
