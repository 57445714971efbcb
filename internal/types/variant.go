package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Variant is one purchasable SKU of a product.
type Variant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	SKU       string    `gorm:"index;column:sku" json:"sku"`
	IsMaster  bool      `gorm:"column:is_master;not null;default:false" json:"is_master"`
	Prices    []*Price  `gorm:"foreignKey:VariantID;references:ID" json:"prices,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Variant) TableName() string { return "variants" }

func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
